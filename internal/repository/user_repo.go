package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	List(ctx context.Context, limit int) ([]models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	SetPushToken(ctx context.Context, id string, token *string) (*models.User, error)
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error)
	SavePreferences(ctx context.Context, pref *models.NotificationPreference) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, errors.Wrap(err, "list users")
}

func (r *userRepo) List(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("first_name ASC, last_name ASC").
		Limit(limit).
		Find(&users).Error
	return users, errors.Wrap(err, "list users")
}

// Upsert inserts the user or refreshes profile fields on repeat sign-in.
func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(user).Error
	return errors.Wrap(err, "upsert user")
}

func (r *userRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "update user %s", id)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) SetPushToken(ctx context.Context, id string, token *string) (*models.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("expo_push_token", token)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "set push token for %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrapf(gorm.ErrRecordNotFound, "set push token for %s", id)
	}
	return r.GetByID(ctx, id)
}

// GetPreferences falls back to the defaults when the user never saved any.
func (r *userRepo) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get preferences for %s", userID)
	}
	return &pref, nil
}

func (r *userRepo) SavePreferences(ctx context.Context, pref *models.NotificationPreference) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"push_enabled", "trip_alerts", "chat_alerts", "updated_at"}),
	}).Create(pref).Error
	return errors.Wrap(err, "save preferences")
}
