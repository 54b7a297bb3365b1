package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/middleware"
	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) service.Actor {
	actor, _ := middleware.CurrentActor(c)
	return actor
}
