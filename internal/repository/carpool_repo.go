package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/carpool-backend/internal/models"
)

type CarpoolRepository interface {
	Create(ctx context.Context, c *models.Carpool) error
	GetByID(ctx context.Context, id string) (*models.Carpool, error)
	// LockByID loads the carpool row FOR UPDATE. Use it inside a transaction
	// to serialize changes to one carpool's manifest.
	LockByID(ctx context.Context, id string) (*models.Carpool, error)
	ListByDriver(ctx context.Context, driverID string) ([]models.Carpool, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Carpool, error)
}

type carpoolRepo struct {
	db *gorm.DB
}

func NewCarpoolRepo(db *gorm.DB) CarpoolRepository {
	return &carpoolRepo{db: db}
}

func (r *carpoolRepo) Create(ctx context.Context, c *models.Carpool) error {
	err := r.db.WithContext(ctx).Omit("Driver", "Vehicle", "Group", "Requests").Create(c).Error
	return errors.Wrap(err, "create carpool")
}

// GetByID loads the carpool with its driver and vehicle.
func (r *carpoolRepo) GetByID(ctx context.Context, id string) (*models.Carpool, error) {
	var c models.Carpool
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get carpool %s", id)
	}
	return &c, nil
}

func (r *carpoolRepo) LockByID(ctx context.Context, id string) (*models.Carpool, error) {
	var c models.Carpool
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Vehicle").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock carpool %s", id)
	}
	return &c, nil
}

func (r *carpoolRepo) ListByDriver(ctx context.Context, driverID string) ([]models.Carpool, error) {
	var carpools []models.Carpool
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("driver_id = ?", driverID).
		Order("departure_date DESC, departure_time DESC").
		Find(&carpools).Error
	return carpools, errors.Wrap(err, "list carpools by driver")
}

func (r *carpoolRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Carpool, error) {
	var carpools []models.Carpool
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("departure_date ASC, departure_time ASC").
		Find(&carpools).Error
	return carpools, errors.Wrap(err, "list carpools by group")
}
