package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
)

// UserService expone las lecturas del directorio que usan los handlers.
type UserService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	validator *Validator
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, validator *Validator) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{logger: logger, users: users, validator: validator}
}

// UserPage es una página del listado con el total del directorio.
type UserPage struct {
	Users []domain.UserView
	Total int
	Page  int
	Limit int
}

// List valida la paginación y devuelve vistas públicas.
func (s *UserService) List(ctx context.Context, pageRaw, limitRaw string) (UserPage, error) {
	page, limit, err := s.validator.Page(pageRaw, limitRaw)
	if err != nil {
		return UserPage{}, err
	}

	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return UserPage{}, domain.Wrap(domain.KindServerError, fmt.Errorf("list users: %w", err))
	}

	views, err := domain.NewUserViews(users)
	if err != nil {
		s.logger.Error("build user views failed", zap.Error(err))
		return UserPage{}, domain.Wrap(domain.KindServerError, err)
	}
	return UserPage{Users: views, Total: total, Page: page, Limit: limit}, nil
}

var errInvalidRole = domain.NewValidationError([]domain.FieldViolation{
	{Field: "role", Message: "Role must be one of admin, moderator, user"},
})

// SetRole cambia el rol de un usuario existente, buscado por email.
func (s *UserService) SetRole(ctx context.Context, email, roleRaw string) (domain.User, error) {
	role, ok := domain.ParseRole(strings.ToLower(strings.TrimSpace(roleRaw)))
	if !ok {
		return domain.User{}, errInvalidRole
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, domain.NewValidationError([]domain.FieldViolation{
				{Field: "email", Message: "User not found"},
			})
		}
		return domain.User{}, domain.Wrap(domain.KindServerError, fmt.Errorf("find by email: %w", err))
	}
	if user.Role == role {
		return user, nil
	}

	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		s.logger.Error("update role failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return domain.User{}, domain.Wrap(domain.KindServerError, fmt.Errorf("update role: %w", err))
	}
	s.logger.Info("user role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", user.Role.String()),
		zap.String("to", role.String()),
	)
	user.Role = role
	return user, nil
}
