package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/services"
)

// RegisterPushToken stores the device token of the caller. Expo and raw FCM
// tokens are both accepted; the push router picks the provider per token.
func RegisterPushToken(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, err := svc.UpdatePushToken(c.Request.Context(), auth.FromContext(c.Request.Context()), &input.Token)
		if err != nil {
			respondError(c, err)
			return
		}

		provider := "fcm"
		if services.IsExpoToken(input.Token) {
			provider = "expo"
		}
		c.JSON(200, gin.H{
			"message":  "Push token registered",
			"userId":   user.ID,
			"provider": provider,
		})
	}
}

// RemovePushToken unregisters the caller's device.
func RemovePushToken(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.UpdatePushToken(c.Request.Context(), auth.FromContext(c.Request.Context()), nil); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Push token removed"})
	}
}
