package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type ChildRepository interface {
	Create(ctx context.Context, c *models.Child) error
	GetByIDs(ctx context.Context, ids []string) ([]models.Child, error)
	ListByParent(ctx context.Context, userID string) ([]models.Child, error)
}

type childRepo struct {
	db *gorm.DB
}

func NewChildRepo(db *gorm.DB) ChildRepository {
	return &childRepo{db: db}
}

func (r *childRepo) Create(ctx context.Context, c *models.Child) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(c).Error, "create child")
}

func (r *childRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Child, error) {
	var children []models.Child
	if len(ids) == 0 {
		return children, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&children).Error
	return children, errors.Wrap(err, "get children")
}

func (r *childRepo) ListByParent(ctx context.Context, userID string) ([]models.Child, error) {
	var children []models.Child
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("first_name ASC").Find(&children).Error
	return children, errors.Wrap(err, "list children")
}
