package models

import "time"

type Message struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SenderID    string    `gorm:"index:idx_messages_pair;not null" json:"senderId"`
	RecipientID string    `gorm:"index:idx_messages_pair;not null" json:"recipientId"`
	Text        string    `gorm:"not null" json:"text"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	Sender      *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Recipient   *User     `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

type GroupMessage struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	GroupID   string    `gorm:"index;not null" json:"groupId"`
	SenderID  string    `gorm:"not null" json:"senderId"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	Sender    *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

func (GroupMessage) TableName() string {
	return "group_messages"
}
