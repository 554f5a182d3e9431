package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-api/internal/domain"
)

// TokenService emite y valida tokens de sesión firmados (HS256).
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	leeway  time.Duration
	issuer  string
	now     func() time.Time
	revoked RevocationStore
}

type Claims struct {
	jwt.RegisteredClaims
}

var errEmptySecret = errors.New("jwt secret must not be empty")

type TokenOption func(*TokenService)

// WithLeeway tolera desfase de reloj al validar exp/iat. Por defecto es cero.
func WithLeeway(d time.Duration) TokenOption {
	return func(s *TokenService) { s.leeway = d }
}

func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = issuer
		}
	}
}

func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithRevocationStore habilita la lista de tokens revocados.
func WithRevocationStore(store RevocationStore) TokenOption {
	return func(s *TokenService) { s.revoked = store }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "auth-api",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue firma un token con sub=userID, iat=now y exp=now+TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("token subject must not be empty")
	}
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifica firma, algoritmo, emisor y vigencia. Cualquier falla es InvalidToken.
func (s *TokenService) Parse(tokenString string) (Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Claims{}, domain.ErrInvalidToken
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, domain.Wrap(domain.KindInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, domain.Wrap(domain.KindInvalidToken, errors.New("missing subject"))
	}
	return claims, nil
}

// Validate devuelve el sujeto de un token válido y no revocado.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", domain.Wrap(domain.KindServerError, err)
		}
		if revoked {
			return "", domain.Wrap(domain.KindInvalidToken, errors.New("token revoked"))
		}
	}
	return claims.Subject, nil
}

// Revoke agrega el jti a la lista de revocados hasta su expiración. Sin
// store configurado no hace nada: los tokens son stateless.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	if s.revoked == nil {
		return nil
	}
	claims, err := s.Parse(tokenString)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return domain.Wrap(domain.KindInvalidToken, errors.New("token has no id"))
	}
	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, remaining+s.leeway)
}

func (s *TokenService) RevocationEnabled() bool {
	return s.revoked != nil
}
