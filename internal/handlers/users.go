package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/middleware"
)

// GetProfile returns the caller's profile.
func GetProfile(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.User(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, dto.FromUser(user))
	}
}

// UpdateProfile updates the caller's profile information
func UpdateProfile(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input dto.UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, err := svc.UpdateUser(c.Request.Context(), auth.FromContext(c.Request.Context()), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"message": "Profile updated successfully",
			"user":    dto.FromUser(user),
		})
	}
}
