package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/dto"
)

// GetNotificationPreferences returns the caller's toggles, or the defaults
// when none were saved.
func GetNotificationPreferences(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		pref, err := svc.Preferences(c.Request.Context(), auth.FromContext(c.Request.Context()))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, dto.FromPreferences(pref))
	}
}

// UpdateNotificationPreferences updates only the provided fields.
func UpdateNotificationPreferences(svc *community.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			PushEnabled *bool `json:"pushEnabled"`
			TripAlerts  *bool `json:"tripAlerts"`
			ChatAlerts  *bool `json:"chatAlerts"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pref, err := svc.UpdatePreferences(c.Request.Context(), auth.FromContext(c.Request.Context()), dto.PreferencesInput{
			PushEnabled: input.PushEnabled,
			TripAlerts:  input.TripAlerts,
			ChatAlerts:  input.ChatAlerts,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"message":     "Preferences updated successfully",
			"preferences": dto.FromPreferences(pref),
		})
	}
}
