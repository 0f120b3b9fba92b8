package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
)

const principalKey = "principal"

// PrincipalMiddleware resolves the caller. A request without an
// Authorization header proceeds as anonymous; a header that is present but
// unusable is rejected outright.
func PrincipalMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(principalKey, authz.Anonymous())
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
			utils.SendUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}

		user, err := authService.ResolveAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidToken) {
				utils.SendUnauthorized(c, "Invalid or expired token")
			} else {
				logger.WithError(err).Error("failed to resolve access token")
				utils.SendInternalError(c, "Failed to authenticate request", nil)
			}
			c.Abort()
			return
		}

		c.Set(principalKey, authz.NewPrincipal(user))
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by PrincipalMiddleware, or
// anonymous when the middleware did not run.
func PrincipalFrom(c *gin.Context) authz.Principal {
	if value, ok := c.Get(principalKey); ok {
		if p, ok := value.(authz.Principal); ok {
			return p
		}
	}
	return authz.Anonymous()
}
