package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/viva-esporte/arena-api/internal/middleware"
	"github.com/viva-esporte/arena-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil on
// routes outside the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	if claims, isClaims := value.(*models.JWTClaims); isClaims {
		return claims
	}
	return nil
}
