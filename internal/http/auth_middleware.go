package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/service"
)

const currentUserKey = "current_user"

// AuthMiddleware protege rutas: resuelve el usuario del token y, si se pide,
// exige un rol.
type AuthMiddleware struct {
	logger     *zap.Logger
	authz      *service.Authorizer
	cookieName string
}

func NewAuthMiddleware(logger *zap.Logger, authz *service.Authorizer, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{logger: logger, authz: authz, cookieName: cookieName}
}

// RequireAuth deja el usuario autenticado en el contexto de gin.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.authz.Authenticate(c.Request.Context(), extractToken(c, m.cookieName))
		if err != nil {
			respondError(c, m.logger, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole va después de RequireAuth.
func (m *AuthMiddleware) RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			respondError(c, m.logger, domain.ErrTokenNotProvided)
			return
		}
		if err := m.authz.Authorize(user, allowed...); err != nil {
			respondError(c, m.logger, err)
			return
		}
		c.Next()
	}
}

// CurrentUser obtiene el usuario que dejó RequireAuth.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

// extractToken busca primero "Authorization: Bearer" y después la cookie.
func extractToken(c *gin.Context, cookieName string) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		if token := strings.TrimSpace(header[len("bearer "):]); token != "" {
			return token
		}
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}
