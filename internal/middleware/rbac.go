package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/response"
)

// ContextSessionKey stores the resolved SessionUser for downstream handlers.
const ContextSessionKey = "sessionUser"

type sessionSource interface {
	Current(ctx context.Context, identity *models.Identity) *models.SessionUser
}

// RequireRole admits callers whose resolved role is minimum or higher. It must run after JWT.
func RequireRole(sessions sessionSource, minimum models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user := sessions.Current(c.Request.Context(), identity)
		if user == nil || !user.Role.Outranks(minimum) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, user)
		c.Next()
	}
}

// RequireAdmin is RequireRole for the admin tier. Developers pass as well.
func RequireAdmin(sessions sessionSource) gin.HandlerFunc {
	return RequireRole(sessions, models.RoleAdmin)
}
