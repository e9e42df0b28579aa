package models

import "time"

type Child struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	UserID             string    `gorm:"index;not null" json:"userId"`
	FirstName          string    `gorm:"not null" json:"firstName"`
	LastName           string    `json:"lastName"`
	SchoolID           *string   `gorm:"index" json:"schoolId,omitempty"`
	SchoolEmailAddress string    `json:"schoolEmailAddress"`
	ImageURL           string    `json:"imageUrl"`
	CreatedAt          time.Time `json:"createdAt"`
	Parent             *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"parent,omitempty"`
}

func (Child) TableName() string {
	return "children"
}
