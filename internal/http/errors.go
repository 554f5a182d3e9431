package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/domain"
)

const genericServerMessage = "Server Error. Please try again later"

// statusCode traduce la clase de un kind a un código HTTP.
func statusCode(class domain.StatusClass) int {
	switch class {
	case domain.StatusBadRequest:
		return http.StatusBadRequest
	case domain.StatusUnauthorized:
		return http.StatusUnauthorized
	case domain.StatusForbidden:
		return http.StatusForbidden
	case domain.StatusConflict:
		return http.StatusConflict
	case domain.StatusServerError:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// respondError escribe la respuesta de error y aborta la cadena. Los errores
// sin kind conocido salen como 500 genérico y dejan un warning.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		logger.Warn("unmapped error reached response mapper",
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortServerError(c)
		return
	}

	class, _, ok := derr.Kind.Describe()
	if !ok {
		logger.Warn("error kind without mapping",
			zap.Int("kind", int(derr.Kind)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortServerError(c)
		return
	}

	if class == domain.StatusServerError {
		logger.Error("request failed",
			zap.String("kind", derr.Kind.String()),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortServerError(c)
		return
	}

	body := gin.H{"status": "fail", "message": derr.Message()}
	if len(derr.Fields) > 0 {
		body["errors"] = derr.Fields
	}
	c.AbortWithStatusJSON(statusCode(class), body)
}

func abortServerError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": genericServerMessage,
	})
}
