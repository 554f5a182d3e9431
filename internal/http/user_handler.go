package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/service"
)

// UserHandler mantiene dependencias para /api/users.
type UserHandler struct {
	logger *zap.Logger
	users  *service.UserService
}

func NewUserHandler(logger *zap.Logger, users *service.UserService) *UserHandler {
	return &UserHandler{logger: logger, users: users}
}

// Me maneja GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		respondError(c, h.logger, domain.ErrTokenNotProvided)
		return
	}
	view, err := domain.NewUserView(user)
	if err != nil {
		respondError(c, h.logger, domain.Wrap(domain.KindServerError, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": view}})
}

// List maneja GET /api/users?page=&limit=.
func (h *UserHandler) List(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), c.Query("page"), c.Query("limit"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"users":   page.Users,
		"results": page.Total,
	})
}
