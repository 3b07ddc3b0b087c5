package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/elearning-api/internal/authz"
	"github.com/noah-isme/elearning-api/internal/models"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
	"github.com/noah-isme/elearning-api/pkg/response"
)

// RequireAction rejects callers whose role may not perform action.
// Resource ownership is checked later by the service.
func RequireAction(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !authz.Can(claims.Role, action) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not "+string(action)))
			c.Abort()
			return
		}
		c.Next()
	}
}
