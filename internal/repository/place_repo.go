package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PlaceRepository interface {
	ListCommunityCenters(ctx context.Context) ([]models.CommunityCenter, error)
	SearchSchools(ctx context.Context, prefix string, limit int) ([]models.School, error)
}

type placeRepo struct {
	db *gorm.DB
}

func NewPlaceRepo(db *gorm.DB) PlaceRepository {
	return &placeRepo{db: db}
}

func (r *placeRepo) ListCommunityCenters(ctx context.Context) ([]models.CommunityCenter, error) {
	var centers []models.CommunityCenter
	err := r.db.WithContext(ctx).Find(&centers).Error
	return centers, errors.Wrap(err, "list community centers")
}

func (r *placeRepo) SearchSchools(ctx context.Context, prefix string, limit int) ([]models.School, error) {
	var schools []models.School
	err := r.db.WithContext(ctx).
		Where("lower(name) LIKE ?", likeEscaper.Replace(strings.ToLower(prefix))+"%").
		Order("name ASC").
		Limit(limit).
		Find(&schools).Error
	return schools, errors.Wrap(err, "search schools")
}
