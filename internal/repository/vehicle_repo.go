package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Vehicle, error)
}

type vehicleRepo struct {
	db *gorm.DB
}

func NewVehicleRepo(db *gorm.DB) VehicleRepository {
	return &vehicleRepo{db: db}
}

func (r *vehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(v).Error, "create vehicle")
}

func (r *vehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, errors.Wrapf(err, "get vehicle %s", id)
	}
	return &v, nil
}

func (r *vehicleRepo) ListByOwner(ctx context.Context, userID string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&vehicles).Error
	return vehicles, errors.Wrap(err, "list vehicles")
}
