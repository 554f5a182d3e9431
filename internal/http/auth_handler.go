package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/service"
)

// CookieSettings controla la cookie de sesión que acompaña al token.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler mantiene dependencias para /api/auth.
type AuthHandler struct {
	logger *zap.Logger
	auth   *service.AuthService
	cookie CookieSettings
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{logger: logger, auth: auth, cookie: cookie}
}

var errInvalidBody = domain.NewValidationError([]domain.FieldViolation{
	{Field: "body", Message: "Invalid request body"},
})

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		respondError(c, h.logger, errInvalidBody)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := domain.NewUserView(user)
	if err != nil {
		respondError(c, h.logger, domain.Wrap(domain.KindServerError, err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"user": view}})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondError(c, h.logger, errInvalidBody)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setCookie(c, token, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

// Logout maneja POST /api/auth/logout. Siempre expira la cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), extractToken(c, h.cookie.Name)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
