package models

import "time"

// Friend is one direction of a friendship: UserID lists FriendID.
type Friend struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_friends_pair;not null" json:"userId"`
	FriendID  string    `gorm:"uniqueIndex:idx_friends_pair;not null" json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Friend    *User     `gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE" json:"friend,omitempty"`
}

func (Friend) TableName() string {
	return "friends"
}
