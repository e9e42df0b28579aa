package models

import "time"

// User is keyed by the identity provider's uid so verified callers map
// straight onto rows without a lookup table.
type User struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	FirstName         string    `gorm:"not null" json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber       string    `json:"phoneNumber"`
	City              string    `json:"city"`
	ImageURL          string    `json:"imageUrl"`
	LicenseImageURL   string    `json:"licenseImageUrl"`
	InsuranceImageURL string    `json:"insuranceImageUrl"`
	ExpoPushToken     *string   `json:"expoPushToken,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// PushToken returns the device token or "" when none is registered.
func (u *User) PushToken() string {
	if u == nil || u.ExpoPushToken == nil {
		return ""
	}
	return *u.ExpoPushToken
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
