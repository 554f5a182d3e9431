package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
)

// PasswordHasher es lo que el flujo necesita de Hasher.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// Tokens es lo que el flujo y el Authorizer necesitan de TokenService.
type Tokens interface {
	Issue(userID string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService orquesta registro, login y logout.
type AuthService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    Tokens
	validator *Validator

	decoyOnce sync.Once
	decoyHash string
}

const decoyPassword = "decoy-credential"

func NewAuthService(logger *zap.Logger, users repository.UserRepository, hasher PasswordHasher, tokens Tokens, validator *Validator) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
	}
}

// Register crea un usuario con rol User y verified=false. No emite token:
// el cliente debe hacer login aparte.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	return s.CreateUser(ctx, input, domain.RoleUser)
}

// CreateUser es Register con un rol explícito; lo usa usersctl para dar de
// alta administradores.
func (s *AuthService) CreateUser(ctx context.Context, input RegisterInput, role domain.Role) (domain.User, error) {
	in, err := s.validator.Register(input)
	if err != nil {
		return domain.User{}, err
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.User{}, errInvalidRole
	}

	_, err = s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return domain.User{}, domain.ErrEmailExists
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Error("lookup user by email failed", zap.Error(err))
		return domain.User{}, domain.Wrap(domain.KindServerError, fmt.Errorf("find by email: %w", err))
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if kind, ok := domain.KindOf(err); ok && kind != domain.KindHashingError {
			return domain.User{}, err
		}
		s.logger.Error("hash password failed", zap.Error(err))
		return domain.User{}, domain.Wrap(domain.KindHashingError, err)
	}

	user, err := s.users.Insert(ctx, domain.NewUser{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		// Perdedor de una carrera con el mismo email.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, domain.ErrEmailExists
		}
		s.logger.Error("insert user failed", zap.Error(err))
		return domain.User{}, domain.Wrap(domain.KindServerError, fmt.Errorf("insert user: %w", err))
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", role.String()))
	return user, nil
}

// Login devuelve un token firmado. Email inexistente y contraseña incorrecta
// producen el mismo WrongCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	in, err := s.validator.Login(input)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.verifyDecoy(ctx, in.Password)
			return "", domain.ErrWrongCredentials
		}
		s.logger.Error("lookup user by email failed", zap.Error(err))
		return "", domain.Wrap(domain.KindServerError, fmt.Errorf("find by email: %w", err))
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("verify password failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", err
	}
	if !ok {
		return "", domain.ErrWrongCredentials
	}

	s.rehash(ctx, user, in.Password)

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		s.logger.Error("issue token failed", zap.Error(err))
		return "", domain.Wrap(domain.KindServerError, fmt.Errorf("issue token: %w", err))
	}
	return token, nil
}

// Logout revoca el token presentado cuando hay lista de revocados; sin ella
// el cliente simplemente descarta el token. Un token inválido o ausente no
// es un error: la sesión ya no existe.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.tokens.Revoke(ctx, token)
	if err == nil || errors.Is(err, domain.ErrInvalidToken) {
		return nil
	}
	s.logger.Error("revoke token failed", zap.Error(err))
	return domain.Wrap(domain.KindServerError, fmt.Errorf("revoke token: %w", err))
}

// verifyDecoy hace el mismo trabajo de Argon2id que un login con email
// existente, para que el tiempo de respuesta no revele qué cuentas existen.
// El hash señuelo se genera una vez con los parámetros configurados.
func (s *AuthService) verifyDecoy(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), decoyPassword)
		if err != nil {
			s.logger.Warn("decoy hash failed", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(ctx, password, s.decoyHash)
}

// rehash actualiza hashes legacy o con parámetros viejos. Las fallas solo se registran.
func (s *AuthService) rehash(ctx context.Context, user domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.logger.Warn("rehash password failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("store rehashed password failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}
