// Package community manages the people side of carpooling: user profiles,
// groups and their members, vehicles, children, and the school and
// community-center directory.
package community

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

const (
	maxSeats         = 15
	nearestCenters   = 5
	schoolMatchLimit = 10
)

type Service struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewService(repo *repository.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// CreateUser registers the caller on first sign-in. Calling it again only
// refreshes the email.
func (s *Service) CreateUser(ctx context.Context, caller *auth.Identity, in dto.CreateUserInput) (*models.User, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, apperr.Invalidf("firstName is required")
	}
	email := deref(in.Email)
	if email == "" {
		email = caller.Email
	}
	if email == "" {
		return nil, apperr.Invalidf("email is required")
	}
	user := &models.User{
		ID:                caller.UID,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          deref(in.LastName),
		Email:             email,
		PhoneNumber:       deref(in.PhoneNumber),
		City:              deref(in.City),
		ImageURL:          deref(in.ImageURL),
		LicenseImageURL:   deref(in.LicenseImageURL),
		InsuranceImageURL: deref(in.InsuranceImageURL),
	}
	if err := s.repo.User.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return s.repo.User.GetByID(ctx, caller.UID)
}

func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user %s not found", id)
	}
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, caller *auth.Identity, in dto.UpdateUserInput) (*models.User, error) {
	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("email", in.Email)
	set("phone_number", in.PhoneNumber)
	set("city", in.City)
	set("image_url", in.ImageURL)
	set("license_image_url", in.LicenseImageURL)
	set("insurance_image_url", in.InsuranceImageURL)
	if v, ok := fields["first_name"]; ok && v == "" {
		return nil, apperr.Invalidf("firstName cannot be empty")
	}
	if v, ok := fields["email"]; ok && v == "" {
		return nil, apperr.Invalidf("email cannot be empty")
	}

	u, err := s.repo.User.Update(ctx, caller.UID, fields)
	if err != nil {
		return nil, notFound(err, "user %s not found", caller.UID)
	}
	return u, nil
}

// UpdatePushToken stores the caller's device token. A nil or blank token
// unregisters the device.
func (s *Service) UpdatePushToken(ctx context.Context, caller *auth.Identity, token *string) (*models.User, error) {
	var value *string
	if t := deref(token); t != "" {
		value = &t
	}
	u, err := s.repo.User.SetPushToken(ctx, caller.UID, value)
	if err != nil {
		return nil, notFound(err, "user %s not found", caller.UID)
	}
	return u, nil
}

func (s *Service) CreateGroup(ctx context.Context, caller *auth.Identity, in dto.CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalidf("group name is required")
	}
	group := &models.Group{
		ID:                uuid.NewString(),
		Name:              name,
		SchoolID:          in.SchoolID,
		CommunityCenterID: in.CommunityCenterID,
	}
	if err := s.repo.Group.Create(ctx, group, caller.UID); err != nil {
		return nil, err
	}
	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("creator_id", caller.UID))
	return s.repo.Group.GetWithMembers(ctx, group.ID)
}

func (s *Service) Groups(ctx context.Context, caller *auth.Identity) ([]models.Group, error) {
	return s.repo.Group.ListForUser(ctx, caller.UID)
}

func (s *Service) requireMember(ctx context.Context, caller *auth.Identity, groupID string) error {
	ok, err := s.repo.Group.IsMember(ctx, groupID, caller.UID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("not a member of group %s", groupID)
	}
	return nil
}

func (s *Service) GroupWithUsers(ctx context.Context, caller *auth.Identity, groupID string) (*models.Group, error) {
	g, err := s.repo.Group.GetWithMembers(ctx, groupID)
	if err != nil {
		return nil, notFound(err, "group %s not found", groupID)
	}
	if err := s.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}
	return g, nil
}

// AddMember lets an existing member invite another user. Adding a current
// member is a no-op.
func (s *Service) AddMember(ctx context.Context, caller *auth.Identity, groupID, userID string) (*models.Group, error) {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		return nil, notFound(err, "group %s not found", groupID)
	}
	if err := s.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "user %s not found", userID)
	}
	if err := s.repo.Group.AddMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.Group.GetWithMembers(ctx, groupID)
}

// RemoveMember removes userID from the group. Members may remove anyone,
// including themselves. It reports whether a membership was deleted.
func (s *Service) RemoveMember(ctx context.Context, caller *auth.Identity, groupID, userID string) (bool, error) {
	if err := s.requireMember(ctx, caller, groupID); err != nil {
		return false, err
	}
	return s.repo.Group.RemoveMember(ctx, groupID, userID)
}

func (s *Service) CreateVehicle(ctx context.Context, caller *auth.Identity, in dto.CreateVehicleInput) (*models.Vehicle, error) {
	if strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		return nil, apperr.Invalidf("make and model are required")
	}
	if in.Seats < 1 || in.Seats > maxSeats {
		return nil, apperr.Invalidf("seats must be between 1 and %d", maxSeats)
	}
	v := &models.Vehicle{
		ID:           uuid.NewString(),
		UserID:       caller.UID,
		Make:         strings.TrimSpace(in.Make),
		Model:        strings.TrimSpace(in.Model),
		Year:         strings.TrimSpace(in.Year),
		LicensePlate: strings.ToUpper(strings.TrimSpace(in.LicensePlate)),
		Color:        strings.TrimSpace(in.Color),
		Seats:        int(in.Seats),
		ImageURL:     deref(in.ImageURL),
	}
	if err := s.repo.Vehicle.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) VehiclesForUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	return s.repo.Vehicle.ListByOwner(ctx, userID)
}

func (s *Service) CreateChild(ctx context.Context, caller *auth.Identity, in dto.CreateChildInput) (*models.Child, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, apperr.Invalidf("firstName is required")
	}
	c := &models.Child{
		ID:                 uuid.NewString(),
		UserID:             caller.UID,
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           deref(in.LastName),
		SchoolID:           in.SchoolID,
		SchoolEmailAddress: deref(in.SchoolEmailAddress),
		ImageURL:           deref(in.ImageURL),
		CreatedAt:          time.Now(),
	}
	if err := s.repo.Child.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ChildrenForUser(ctx context.Context, userID string) ([]models.Child, error) {
	return s.repo.Child.ListByParent(ctx, userID)
}

// CommunityCenters returns the closest centers to a point with their
// distance in meters.
func (s *Service) CommunityCenters(ctx context.Context, lat, lon float64) ([]*dto.CommunityCenter, error) {
	centers, err := s.repo.Place.ListCommunityCenters(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.CommunityCenter, len(centers))
	points := make([]utils.Point, 0, len(centers))
	for _, c := range centers {
		byID[c.ID] = c
		points = append(points, utils.Point{Key: c.ID, Lat: c.Lat, Lon: c.Lon})
	}

	ranked := utils.Nearest(lat, lon, points, nearestCenters)
	out := make([]*dto.CommunityCenter, 0, len(ranked))
	for _, r := range ranked {
		c := byID[r.Key]
		out = append(out, &dto.CommunityCenter{
			ID:       c.ID,
			Name:     c.Name,
			Address:  c.Address,
			Lat:      c.Lat,
			Lon:      c.Lon,
			Distance: r.DistanceMeters,
		})
	}
	return out, nil
}

func (s *Service) SearchSchools(ctx context.Context, prefix string) ([]models.School, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []models.School{}, nil
	}
	return s.repo.Place.SearchSchools(ctx, prefix, schoolMatchLimit)
}

func (s *Service) Preferences(ctx context.Context, caller *auth.Identity) (*models.NotificationPreference, error) {
	return s.repo.User.GetPreferences(ctx, caller.UID)
}

// UpdatePreferences applies only the toggles present in the input.
func (s *Service) UpdatePreferences(ctx context.Context, caller *auth.Identity, in dto.PreferencesInput) (*models.NotificationPreference, error) {
	pref, err := s.repo.User.GetPreferences(ctx, caller.UID)
	if err != nil {
		return nil, err
	}
	if in.PushEnabled != nil {
		pref.PushEnabled = *in.PushEnabled
	}
	if in.TripAlerts != nil {
		pref.TripAlerts = *in.TripAlerts
	}
	if in.ChatAlerts != nil {
		pref.ChatAlerts = *in.ChatAlerts
	}
	pref.UpdatedAt = time.Now()
	if err := s.repo.User.SavePreferences(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}
