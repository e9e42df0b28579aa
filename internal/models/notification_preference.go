package models

import "time"

// NotificationPreference lets a user mute device pushes per category.
// Foreground events on the realtime bus are never muted.
type NotificationPreference struct {
	UserID      string    `gorm:"primaryKey" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PushEnabled bool      `gorm:"column:push_enabled;default:true" json:"pushEnabled"`
	TripAlerts  bool      `gorm:"column:trip_alerts;default:true" json:"tripAlerts"`
	ChatAlerts  bool      `gorm:"column:chat_alerts;default:true" json:"chatAlerts"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences is what a user gets before saving any choice.
func DefaultPreferences(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:      userID,
		PushEnabled: true,
		TripAlerts:  true,
		ChatAlerts:  true,
	}
}

// Category selects which alert toggle applies to a push.
type Category string

const (
	CategoryTrip Category = "trip"
	CategoryChat Category = "chat"
)

// Allows reports whether a push of the given category may be sent.
func (p *NotificationPreference) Allows(c Category) bool {
	if p == nil {
		return true
	}
	if !p.PushEnabled {
		return false
	}
	switch c {
	case CategoryTrip:
		return p.TripAlerts
	case CategoryChat:
		return p.ChatAlerts
	}
	return true
}
