package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type FriendRepository interface {
	// Add is a no-op when the pair already exists.
	Add(ctx context.Context, userID, friendID string) error
	Get(ctx context.Context, userID, friendID string) (*models.Friend, error)
	ListForUser(ctx context.Context, userID string) ([]models.Friend, error)
	Remove(ctx context.Context, userID, friendID string) (bool, error)
}

type friendRepo struct {
	db *gorm.DB
}

func NewFriendRepo(db *gorm.DB) FriendRepository {
	return &friendRepo{db: db}
}

func (r *friendRepo) Add(ctx context.Context, userID, friendID string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("User", "Friend").
		Create(&models.Friend{UserID: userID, FriendID: friendID}).Error
	return errors.Wrap(err, "add friend")
}

func (r *friendRepo) Get(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	var f models.Friend
	err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		First(&f).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get friend %s", friendID)
	}
	return &f, nil
}

func (r *friendRepo) ListForUser(ctx context.Context, userID string) ([]models.Friend, error) {
	var friends []models.Friend
	err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&friends).Error
	return friends, errors.Wrap(err, "list friends")
}

func (r *friendRepo) Remove(ctx context.Context, userID, friendID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Delete(&models.Friend{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "remove friend")
	}
	return res.RowsAffected > 0, nil
}
