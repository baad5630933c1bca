package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/middleware"
	"github.com/maminech/smartkid-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func callerFromContext(c *gin.Context) models.Identity {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Identity{}
	}
	return claims.Identity()
}
