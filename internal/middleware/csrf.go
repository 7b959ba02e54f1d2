// File: internal/middleware/csrf.go
package middleware

import (
	"context"
	"net/http"

	"kanoonwise_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CSRFValidator checks a presented CSRF token against the session's stored one.
type CSRFValidator interface {
	ValidateCSRF(ctx context.Context, sessionID, token string) error
}

// CSRFMiddleware requires a matching X-CSRF-Token header on state-mutating
// requests. Safe methods pass through. Must run after AuthMiddleware so the
// session ID is in context.
func CSRFMiddleware(validator CSRFValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sessionID := common.GetSessionIDFromContext(c)
		token := c.GetHeader(common.CSRFTokenHeader)

		if err := validator.ValidateCSRF(c.Request.Context(), sessionID, token); err != nil {
			logger.Warn("CSRF validation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			common.RespondWithError(c, err)
			return
		}
		c.Next()
	}
}
