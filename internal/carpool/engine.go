// Package carpool matches pending ride requests into carpools and answers
// the read side of that workflow.
package carpool

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/events"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/observability"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	notifyConcurrency = 8
)

var errUnavailable = apperr.Conflictf("request no longer available")

type Dispatcher interface {
	Deliver(ctx context.Context, n notify.Notification)
}

type Engine struct {
	repo       *repository.Repository
	dispatcher Dispatcher
	events     events.Emitter
	cfg        config.MatchingConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewEngine(repo *repository.Repository, dispatcher Dispatcher, emitter events.Emitter, cfg config.MatchingConfig, logger *zap.Logger) *Engine {
	return &Engine{
		repo:       repo,
		dispatcher: dispatcher,
		events:     emitter,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func validateCarpoolInput(in dto.CreateCarpoolInput) (time.Time, error) {
	required := map[string]string{
		"driverId":      in.DriverID,
		"vehicleId":     in.VehicleID,
		"groupId":       in.GroupID,
		"startAddress":  in.StartAddress,
		"endAddress":    in.EndAddress,
		"departureDate": in.DepartureDate,
		"departureTime": in.DepartureTime,
	}
	for _, field := range []string{"driverId", "vehicleId", "groupId", "startAddress", "endAddress", "departureDate", "departureTime"} {
		if strings.TrimSpace(required[field]) == "" {
			return time.Time{}, apperr.Invalidf("%s is required", field)
		}
	}
	departure, err := time.Parse(dateLayout+" "+timeLayout, in.DepartureDate+" "+in.DepartureTime)
	if err != nil {
		return time.Time{}, apperr.Invalidf("departureDate must be YYYY-MM-DD and departureTime HH:MM")
	}
	return departure, nil
}

// CreateCarpool commits a carpool and absorbs the given requests into it.
// A request already absorbed by this carpool counts as success; one taken
// by another carpool fails the whole call with CONFLICT.
func (e *Engine) CreateCarpool(ctx context.Context, caller *auth.Identity, in dto.CreateCarpoolInput) (*models.Carpool, error) {
	if caller == nil || caller.UID != in.DriverID {
		return nil, apperr.Unauthenticatedf("only the driver can create their carpool")
	}
	departure, err := validateCarpoolInput(in)
	if err != nil {
		return nil, err
	}

	vehicle, err := e.repo.Vehicle.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, notFound(err, "vehicle %s not found", in.VehicleID)
	}
	if vehicle.UserID != in.DriverID {
		return nil, apperr.Invalidf("vehicle %s does not belong to the driver", in.VehicleID)
	}
	if _, err := e.repo.Group.GetByID(ctx, in.GroupID); err != nil {
		return nil, notFound(err, "group %s not found", in.GroupID)
	}

	driverChildren, err := e.driverChildren(ctx, in.DriverID, dedupe(in.DriverChildIDs))
	if err != nil {
		return nil, err
	}

	carpool := &models.Carpool{
		ID:              uuid.NewString(),
		DriverID:        in.DriverID,
		VehicleID:       in.VehicleID,
		GroupID:         in.GroupID,
		StartAddress:    in.StartAddress,
		EndAddress:      in.EndAddress,
		StartLat:        in.StartLat,
		StartLon:        in.StartLon,
		EndLat:          in.EndLat,
		EndLon:          in.EndLon,
		DepartureDate:   in.DepartureDate,
		DepartureTime:   in.DepartureTime,
		ExtraCarSeat:    in.ExtraCarSeat != nil && *in.ExtraCarSeat,
		WinterTires:     in.WinterTires != nil && *in.WinterTires,
		TripPreferences: in.TripPreferences,
		EstimatedTime:   in.EstimatedTime,
		CreatedAt:       e.now(),
	}
	requestIDs := dedupe(in.RequestIDs)

	var absorbed []models.Request
	err = e.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		reqs, err := loadRequests(ctx, tx, requestIDs)
		if err != nil {
			return err
		}
		if err := e.checkCapacity(vehicle, carpool.ExtraCarSeat, reqs, len(driverChildren)); err != nil {
			return err
		}
		if err := tx.Carpool.Create(ctx, carpool); err != nil {
			return err
		}
		for _, id := range requestIDs {
			if err := claim(ctx, tx, id, carpool.ID); err != nil {
				return err
			}
		}
		if len(driverChildren) > 0 {
			own := &models.Request{
				ID:              uuid.NewString(),
				CarpoolID:       &carpool.ID,
				ParentID:        in.DriverID,
				GroupID:         in.GroupID,
				IsApproved:      true,
				StartingAddress: in.StartAddress,
				EndingAddress:   in.EndAddress,
				StartingLat:     in.StartLat,
				StartingLon:     in.StartLon,
				EndingLat:       in.EndLat,
				EndingLon:       in.EndLon,
				PickupTime:      departure,
				CreatedAt:       e.now(),
				Children:        driverChildren,
			}
			if err := tx.Request.Create(ctx, own); err != nil {
				return err
			}
		}
		absorbed = reqs
		return nil
	})
	if err != nil {
		outcome := "error"
		if apperr.Is(err, apperr.Conflict) {
			outcome = "conflict"
		}
		observability.MatchOutcomes.WithLabelValues(outcome).Inc()
		return nil, err
	}

	observability.MatchOutcomes.WithLabelValues("created").Inc()
	e.logger.Info("carpool created",
		zap.String("carpool_id", carpool.ID),
		zap.String("driver_id", carpool.DriverID),
		zap.Int("requests", len(requestIDs)),
		zap.Int("driver_children", len(driverChildren)),
	)
	e.afterCommit(ctx, carpool, absorbed)

	return e.loadCarpool(ctx, carpool.ID)
}

func (e *Engine) driverChildren(ctx context.Context, driverID string, ids []string) ([]models.Child, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	children, err := e.repo.Child.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(children) != len(ids) {
		return nil, apperr.NotFoundf("one or more driver children not found")
	}
	for _, c := range children {
		if c.UserID != driverID {
			return nil, apperr.Invalidf("child %s does not belong to the driver", c.ID)
		}
	}
	return children, nil
}

func loadRequests(ctx context.Context, tx *repository.Repository, ids []string) ([]models.Request, error) {
	reqs := make([]models.Request, 0, len(ids))
	for _, id := range ids {
		req, err := tx.Request.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "request %s not found", id)
		}
		reqs = append(reqs, *req)
	}
	return reqs, nil
}

// checkCapacity weighs each request by its riding children (at least one
// seat) and adds the driver's own children.
func (e *Engine) checkCapacity(v *models.Vehicle, extraSeat bool, reqs []models.Request, driverChildren int) error {
	if !e.cfg.EnforceCapacity {
		return nil
	}
	seats := driverChildren
	for i := range reqs {
		seats += reqs[i].Seats()
	}
	if capacity := v.Capacity(extraSeat); seats > capacity {
		return apperr.Conflictf("carpool needs %d seats but the vehicle has %d", seats, capacity)
	}
	return nil
}

// claim points one request at carpoolID. It tolerates a request that
// already points there and retries once when the conditional update
// missed a row that is still unmatched.
func claim(ctx context.Context, tx *repository.Repository, requestID, carpoolID string) error {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := tx.Request.ClaimForCarpool(ctx, requestID, carpoolID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		current, err := tx.Request.GetByID(ctx, requestID)
		if err != nil {
			return notFound(err, "request %s not found", requestID)
		}
		switch {
		case current.CarpoolID != nil && *current.CarpoolID == carpoolID:
			return nil
		case current.CarpoolID != nil:
			return errUnavailable
		}
	}
	return errUnavailable
}

// AddRequestToCarpool lets the driver absorb one more request into an
// existing carpool. The carpool row is locked so concurrent additions see
// each other's seats. Repeating the call for the same pair is a no-op.
func (e *Engine) AddRequestToCarpool(ctx context.Context, caller *auth.Identity, carpoolID, requestID string) (*models.Carpool, error) {
	if caller == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	existing, err := e.repo.Carpool.GetByID(ctx, carpoolID)
	if err != nil {
		return nil, notFound(err, "carpool %s not found", carpoolID)
	}
	if existing.DriverID != caller.UID {
		return nil, apperr.Forbiddenf("only the driver can add requests to this carpool")
	}

	var (
		carpool *models.Carpool
		added   []models.Request
	)
	err = e.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Carpool.LockByID(ctx, carpoolID)
		if err != nil {
			return notFound(err, "carpool %s not found", carpoolID)
		}
		req, err := tx.Request.GetByID(ctx, requestID)
		if err != nil {
			return notFound(err, "request %s not found", requestID)
		}
		if req.GroupID != locked.GroupID {
			return apperr.Invalidf("request %s belongs to another group", requestID)
		}
		carpool = locked
		switch {
		case req.CarpoolID != nil && *req.CarpoolID == carpoolID:
			return nil
		case req.CarpoolID != nil:
			return errUnavailable
		}

		vehicle, err := tx.Vehicle.GetByID(ctx, locked.VehicleID)
		if err != nil {
			return notFound(err, "vehicle %s not found", locked.VehicleID)
		}
		current, err := tx.Request.ListByCarpool(ctx, carpoolID, false)
		if err != nil {
			return err
		}
		if err := e.checkCapacity(vehicle, locked.ExtraCarSeat, append(current, *req), 0); err != nil {
			return err
		}
		if err := claim(ctx, tx, requestID, carpoolID); err != nil {
			return err
		}
		added = []models.Request{*req}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.Conflict) {
			observability.MatchOutcomes.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	if len(added) > 0 {
		observability.MatchOutcomes.WithLabelValues("added").Inc()
		e.logger.Info("request added to carpool",
			zap.String("carpool_id", carpoolID),
			zap.String("request_id", requestID),
		)
		e.notifyAbsorbed(ctx, "carpool.request_added", carpool, added)
	}
	return e.loadCarpool(ctx, carpoolID)
}

func (e *Engine) afterCommit(ctx context.Context, carpool *models.Carpool, absorbed []models.Request) {
	e.notifyAbsorbed(ctx, "carpool.created", carpool, absorbed)
}

// notifyAbsorbed emits the trip event and tells each distinct parent,
// other than the driver, that their request joined the carpool.
func (e *Engine) notifyAbsorbed(ctx context.Context, eventType string, carpool *models.Carpool, absorbed []models.Request) {
	ctx = context.WithoutCancel(ctx)
	parents := make([]string, 0, len(absorbed))
	seen := map[string]bool{carpool.DriverID: true}
	for _, r := range absorbed {
		if !seen[r.ParentID] {
			seen[r.ParentID] = true
			parents = append(parents, r.ParentID)
		}
	}

	e.events.Emit(ctx, events.TripEvent{
		Type:       eventType,
		CarpoolID:  carpool.ID,
		DriverID:   carpool.DriverID,
		Lat:        carpool.StartLat,
		Lon:        carpool.StartLon,
		Recipients: parents,
		At:         e.now(),
	})
	if len(parents) == 0 {
		return
	}

	users, err := e.repo.User.GetByIDs(ctx, parents)
	if err != nil {
		e.logger.Warn("load absorbed parents", zap.Error(err))
		return
	}
	body := "Your request was added to a carpool departing " + carpool.DepartureDate + " at " + carpool.DepartureTime + "."

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for i := range users {
		u := &users[i]
		g.Go(func() error {
			e.dispatcher.Deliver(gctx, notify.Notification{
				Recipient: u,
				SenderID:  carpool.DriverID,
				Title:     notify.TitleTripUpdate,
				Body:      body,
				Category:  models.CategoryTrip,
				Type:      "MATCHED",
				CarpoolID: carpool.ID,
			})
			return nil
		})
	}
	_ = g.Wait()
}

// CreateRequest posts a pending ride request for the caller's children.
func (e *Engine) CreateRequest(ctx context.Context, caller *auth.Identity, in dto.CreateRequestInput) (*models.Request, error) {
	if caller == nil || caller.UID != in.ParentID {
		return nil, apperr.Unauthenticatedf("requests can only be created for yourself")
	}
	if strings.TrimSpace(in.GroupID) == "" || strings.TrimSpace(in.StartingAddress) == "" || strings.TrimSpace(in.EndingAddress) == "" {
		return nil, apperr.Invalidf("groupId, startingAddress and endingAddress are required")
	}
	pickup, err := parsePickup(in.PickupTime)
	if err != nil {
		return nil, err
	}
	if _, err := e.repo.User.GetByID(ctx, in.ParentID); err != nil {
		return nil, notFound(err, "user %s not found", in.ParentID)
	}
	if _, err := e.repo.Group.GetByID(ctx, in.GroupID); err != nil {
		return nil, notFound(err, "group %s not found", in.GroupID)
	}

	childIDs := dedupe(in.ChildIDs)
	children, err := e.repo.Child.GetByIDs(ctx, childIDs)
	if err != nil {
		return nil, err
	}
	if len(children) != len(childIDs) {
		return nil, apperr.NotFoundf("one or more children not found")
	}
	for _, c := range children {
		if c.UserID != in.ParentID {
			return nil, apperr.Invalidf("child %s does not belong to the parent", c.ID)
		}
	}

	req := &models.Request{
		ID:              uuid.NewString(),
		ParentID:        in.ParentID,
		GroupID:         in.GroupID,
		StartingAddress: in.StartingAddress,
		EndingAddress:   in.EndingAddress,
		StartingLat:     in.StartingLat,
		StartingLon:     in.StartingLon,
		EndingLat:       in.EndingLat,
		EndingLon:       in.EndingLon,
		PickupTime:      pickup,
		CreatedAt:       e.now(),
		Children:        children,
	}
	if err := e.repo.Request.Create(ctx, req); err != nil {
		return nil, err
	}
	return e.repo.Request.GetByID(ctx, req.ID)
}

func parsePickup(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateLayout+" "+timeLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Invalidf("pickupTime must be RFC3339 or YYYY-MM-DD HH:MM")
}

// ApproveRequest flips the approval flag of one request.
func (e *Engine) ApproveRequest(ctx context.Context, caller *auth.Identity, requestID string) (*models.Request, error) {
	if caller == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	req, err := e.repo.Request.Approve(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "request %s not found", requestID)
	}
	return req, nil
}

func (e *Engine) loadCarpool(ctx context.Context, id string) (*models.Carpool, error) {
	c, err := e.repo.Carpool.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "carpool %s not found", id)
	}
	reqs, err := e.repo.Request.ListByCarpool(ctx, id, false)
	if err != nil {
		return nil, err
	}
	c.Requests = reqs
	return c, nil
}
