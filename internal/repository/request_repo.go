package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

// PendingFilter narrows the unmatched requests a driver can choose from.
type PendingFilter struct {
	GroupID       string
	From, To      time.Time
	EndingAddress string
}

type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	// ClaimForCarpool sets carpool_id and is_approved only when the request is
	// unmatched or already matched to carpoolID. It reports whether a row matched.
	ClaimForCarpool(ctx context.Context, requestID, carpoolID string) (bool, error)
	Approve(ctx context.Context, id string) (*models.Request, error)
	ListPending(ctx context.Context, f PendingFilter) ([]models.Request, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Request, error)
	ListByCarpool(ctx context.Context, carpoolID string, approvedOnly bool) ([]models.Request, error)
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

// Create inserts the request and its request_children rows; the children
// themselves are never upserted.
func (r *requestRepo) Create(ctx context.Context, req *models.Request) error {
	err := r.db.WithContext(ctx).Omit("Children.*").Create(req).Error
	return errors.Wrap(err, "create request")
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := r.db.WithContext(ctx).
		Preload("Children").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get request %s", id)
	}
	return &req, nil
}

func (r *requestRepo) ClaimForCarpool(ctx context.Context, requestID, carpoolID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND (carpool_id IS NULL OR carpool_id = ?)", requestID, carpoolID).
		Updates(map[string]interface{}{
			"carpool_id":  carpoolID,
			"is_approved": true,
		})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "claim request %s", requestID)
	}
	return res.RowsAffected == 1, nil
}

func (r *requestRepo) Approve(ctx context.Context, id string) (*models.Request, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ?", id).
		Update("is_approved", true)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "approve request %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrapf(gorm.ErrRecordNotFound, "approve request %s", id)
	}
	return r.GetByID(ctx, id)
}

func (r *requestRepo) ListPending(ctx context.Context, f PendingFilter) ([]models.Request, error) {
	q := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children.Parent").
		Where("group_id = ? AND carpool_id IS NULL AND is_approved = ?", f.GroupID, false).
		Where("pickup_time >= ? AND pickup_time <= ?", f.From, f.To)
	if addr := strings.TrimSpace(f.EndingAddress); addr != "" {
		q = q.Where("lower(ending_address) = ?", strings.ToLower(addr))
	}
	var reqs []models.Request
	err := q.Order("pickup_time ASC").Find(&reqs).Error
	return reqs, errors.Wrap(err, "list pending requests")
}

func (r *requestRepo) ListByParent(ctx context.Context, parentID string) ([]models.Request, error) {
	var reqs []models.Request
	err := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children").
		Preload("Carpool.Driver").
		Where("parent_id = ?", parentID).
		Order("pickup_time DESC").
		Find(&reqs).Error
	return reqs, errors.Wrap(err, "list requests by parent")
}

func (r *requestRepo) ListByCarpool(ctx context.Context, carpoolID string, approvedOnly bool) ([]models.Request, error) {
	q := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children").
		Where("carpool_id = ?", carpoolID)
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	var reqs []models.Request
	err := q.Order("pickup_time ASC").Find(&reqs).Error
	return reqs, errors.Wrap(err, "list requests by carpool")
}
