package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)
	// ListForUser returns every private message the user sent or received,
	// newest first.
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Message, error)
	CreateGroupMessage(ctx context.Context, m *models.GroupMessage) error
	ListGroupMessages(ctx context.Context, groupID string, limit int) ([]models.GroupMessage, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

// Create stores the message and loads both participants onto it.
func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Sender", "Recipient").Create(m).Error; err != nil {
		return errors.Wrap(err, "create message")
	}
	err := db.Preload("Sender").Preload("Recipient").Where("id = ?", m.ID).First(m).Error
	return errors.Wrap(err, "reload message")
}

// Conversation returns both directions between two users, oldest first.
func (r *messageRepo) Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, errors.Wrap(err, "load conversation")
}

func (r *messageRepo) ListForUser(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, errors.Wrap(err, "list messages for user")
}

func (r *messageRepo) CreateGroupMessage(ctx context.Context, m *models.GroupMessage) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Sender", "Group").Create(m).Error; err != nil {
		return errors.Wrap(err, "create group message")
	}
	err := db.Preload("Sender").Where("id = ?", m.ID).First(m).Error
	return errors.Wrap(err, "reload group message")
}

func (r *messageRepo) ListGroupMessages(ctx context.Context, groupID string, limit int) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, errors.Wrap(err, "list group messages")
}
