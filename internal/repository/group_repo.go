package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group, creatorID string) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetWithMembers(ctx context.Context, id string) (*models.Group, error)
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) (bool, error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

// Create inserts the group and its creator's membership together.
func (r *groupRepo) Create(ctx context.Context, group *models.Group, creatorID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: creatorID}).Error
	})
	return errors.Wrap(err, "create group")
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, errors.Wrapf(err, "get group %s", id)
	}
	return &group, nil
}

func (r *groupRepo) GetWithMembers(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Preload("Members.User").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get group %s", id)
	}
	return &group, nil
}

func (r *groupRepo) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN users_to_groups ug ON ug.group_id = groups.id").
		Where("ug.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	return groups, errors.Wrap(err, "list groups")
}

func (r *groupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupMember{GroupID: groupID, UserID: userID}).Error
	return errors.Wrap(err, "add member")
}

func (r *groupRepo) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "remove member")
	}
	return res.RowsAffected > 0, nil
}

func (r *groupRepo) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, errors.Wrap(err, "list member ids")
}

func (r *groupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, errors.Wrap(err, "check membership")
}
