package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-cidadao-api/internal/middleware"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

func identityFromContext(c *gin.Context) *models.Identity {
	return middleware.CurrentIdentity(c)
}

func sessionFromContext(c *gin.Context) *models.SessionUser {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.SessionUser)
	if !ok {
		return nil
	}
	return user
}
