package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
)

// Authorizer resuelve el usuario de un token y decide por rol. Cada request
// se evalúa desde cero; no hay caché de sesión.
type Authorizer struct {
	logger *zap.Logger
	users  repository.UserRepository
	tokens Tokens
}

func NewAuthorizer(logger *zap.Logger, users repository.UserRepository, tokens Tokens) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{logger: logger, users: users, tokens: tokens}
}

// Authenticate valida el token y carga su sujeto.
func (a *Authorizer) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrTokenNotProvided
	}

	subject, err := a.tokens.Validate(ctx, token)
	if err != nil {
		return domain.User{}, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		// Firmado por nosotros pero con un sujeto que no es un id.
		return domain.User{}, domain.Wrap(domain.KindInvalidToken, fmt.Errorf("subject: %w", err))
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, domain.ErrUserNoLongerExists
		}
		a.logger.Error("lookup user by id failed", zap.Error(err))
		return domain.User{}, domain.Wrap(domain.KindServerError, fmt.Errorf("find by id: %w", err))
	}
	return user, nil
}

// Authorize exige que el rol del usuario esté entre los permitidos.
func (a *Authorizer) Authorize(user domain.User, allowed ...domain.Role) error {
	if _, ok := domain.ParseRole(string(user.Role)); !ok {
		a.logger.Warn("user with unknown role", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
		return domain.ErrPermissionDenied
	}
	if !user.Role.In(allowed...) {
		return domain.ErrPermissionDenied
	}
	return nil
}

// ListUsersRoles son los roles que pueden listar el directorio.
var ListUsersRoles = []domain.Role{domain.RoleAdmin, domain.RoleModerator}
