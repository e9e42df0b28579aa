// Package tracker turns driver position reports into live location fan-out
// and at-most-once trip notifications.
package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

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
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

// Dispatcher delivers one notification to one user.
type Dispatcher interface {
	Deliver(ctx context.Context, n notify.Notification)
}

// Composer phrases a notification, returning fallback on any failure.
type Composer interface {
	Compose(ctx context.Context, prompt, fallback string) string
}

type Tracker struct {
	carpools   repository.CarpoolRepository
	requests   repository.RequestRepository
	claims     ClaimStore
	bus        realtime.Publisher
	dispatcher Dispatcher
	composer   Composer
	events     events.Emitter
	cfg        config.TrackerConfig
	logger     *zap.Logger
	now        func() time.Time
}

func New(
	repo *repository.Repository,
	claims ClaimStore,
	bus realtime.Publisher,
	dispatcher Dispatcher,
	composer Composer,
	emitter events.Emitter,
	cfg config.TrackerConfig,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		carpools:   repo.Carpool,
		requests:   repo.Request,
		claims:     claims,
		bus:        bus,
		dispatcher: dispatcher,
		composer:   composer,
		events:     emitter,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// trip is a carpool with its approved manifest, resolved for the driver.
type trip struct {
	carpool  *models.Carpool
	manifest []models.Request
}

func (t *trip) driverName() string {
	if name := t.carpool.Driver.DisplayName(); name != "" {
		return name
	}
	return "your driver"
}

// riders returns one entry per distinct parent, excluding the driver, in
// manifest order.
func (t *trip) riders() []*models.User {
	seen := make(map[string]bool)
	var out []*models.User
	for i := range t.manifest {
		p := t.manifest[i].Parent
		if p == nil || p.ID == t.carpool.DriverID || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (t *trip) request(id string) *models.Request {
	for i := range t.manifest {
		if t.manifest[i].ID == id {
			return &t.manifest[i]
		}
	}
	return nil
}

// childrenOf lists the first names of a parent's riding children.
func (t *trip) childrenOf(parentID string) []string {
	var names []string
	for i := range t.manifest {
		if t.manifest[i].ParentID == parentID {
			names = append(names, t.manifest[i].ChildNames()...)
		}
	}
	return names
}

func (tr *Tracker) resolve(ctx context.Context, caller *auth.Identity, carpoolID string) (*trip, error) {
	if strings.TrimSpace(carpoolID) == "" {
		return nil, apperr.Invalidf("carpoolId is required")
	}
	carpool, err := tr.carpools.GetByID(ctx, carpoolID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("carpool %s not found", carpoolID)
	}
	if err != nil {
		return nil, err
	}
	if carpool.DriverID != caller.UID {
		return nil, apperr.Forbiddenf("only the driver can report on this carpool")
	}
	manifest, err := tr.requests.ListByCarpool(ctx, carpoolID, true)
	if err != nil {
		return nil, err
	}
	return &trip{carpool: carpool, manifest: manifest}, nil
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func eta(r dto.LocationReport) string {
	if r.TimeUntilNextStop != "" {
		return r.TimeUntilNextStop
	}
	if r.TimeToNextStop != "" {
		return r.TimeToNextStop
	}
	return "soon"
}

// Report handles one driver position sample.
func (tr *Tracker) Report(ctx context.Context, caller *auth.Identity, r dto.LocationReport) (*dto.LocationData, error) {
	if !validCoordinates(r.Lat, r.Lon) {
		return nil, apperr.Invalidf("coordinates out of range")
	}
	t, err := tr.resolve(ctx, caller, r.CarpoolID)
	if err != nil {
		return nil, err
	}

	work := context.WithoutCancel(ctx)
	next := r.NextStop.Address
	when := eta(r)

	if r.IsLeaving && tr.claim(work, t, leavingKey(t.carpool.ID)) {
		tr.fireUpdate(work, t, dto.NotificationLeaving, t.riders(), next, when)
	}

	if req := t.request(r.NextStop.RequestID); req != nil && req.Parent != nil && req.ParentID != t.carpool.DriverID {
		d := utils.HaversineMeters(r.Lat, r.Lon, req.StartingLat, req.StartingLon)
		if d <= tr.cfg.ProximityMeters && tr.claim(work, t, nearStopKey(req.ID)) {
			tr.fireUpdate(work, t, dto.NotificationNearStop, []*models.User{req.Parent}, next, when)
		}
	}

	if r.IsFinalDestination && tr.claim(work, t, finalKey(t.carpool.ID)) {
		tr.fireFinal(work, t)
	}

	loc := &dto.LocationData{
		Lat:       r.Lat,
		Lon:       r.Lon,
		CarpoolID: t.carpool.ID,
		DriverID:  t.carpool.DriverID,
		SenderID:  caller.UID,
		Timestamp: tr.now().UTC().Format(time.RFC3339),
		NextStop:  &dto.NextStop{Address: r.NextStop.Address, RequestID: r.NextStop.RequestID},
	}
	riders := t.riders()
	for _, p := range riders {
		tr.bus.Publish(realtime.Key(realtime.KindLocation, p.ID), loc)
	}

	tr.events.Emit(work, events.TripEvent{
		Type:       "location.reported",
		CarpoolID:  t.carpool.ID,
		DriverID:   t.carpool.DriverID,
		Lat:        r.Lat,
		Lon:        r.Lon,
		Recipients: userIDs(riders),
		RequestID:  r.NextStop.RequestID,
		At:         tr.now(),
	})
	return loc, nil
}

// Notify fires one named event through the same claim discipline as
// Report. It reports whether the event fired on this call.
func (tr *Tracker) Notify(ctx context.Context, caller *auth.Identity, info dto.NotificationInfo) (bool, error) {
	t, err := tr.resolve(ctx, caller, info.CarpoolID)
	if err != nil {
		return false, err
	}
	work := context.WithoutCancel(ctx)
	when := info.TimeUntilNextStop
	if when == "" {
		when = info.TimeToNextStop
	}
	if when == "" {
		when = "soon"
	}

	switch info.NotificationType {
	case dto.NotificationLeaving:
		if !tr.claim(work, t, leavingKey(t.carpool.ID)) {
			return false, nil
		}
		tr.fireUpdate(work, t, dto.NotificationLeaving, t.riders(), info.NextStop.Address, when)
	case dto.NotificationNearStop:
		req := t.request(info.NextStop.RequestID)
		if req == nil {
			return false, apperr.Invalidf("request %s is not part of this carpool", info.NextStop.RequestID)
		}
		if req.Parent == nil || req.ParentID == t.carpool.DriverID || !tr.claim(work, t, nearStopKey(req.ID)) {
			return false, nil
		}
		tr.fireUpdate(work, t, dto.NotificationNearStop, []*models.User{req.Parent}, info.NextStop.Address, when)
	case dto.NotificationFinalDestination:
		if !tr.claim(work, t, finalKey(t.carpool.ID)) {
			return false, nil
		}
		tr.fireFinal(work, t)
	default:
		return false, apperr.Invalidf("unknown notification type %q", info.NotificationType)
	}
	return true, nil
}

// ResetTracking clears the fired events of a carpool so the next trip on
// the same carpool notifies again.
func (tr *Tracker) ResetTracking(ctx context.Context, caller *auth.Identity, carpoolID string) (bool, error) {
	t, err := tr.resolve(ctx, caller, carpoolID)
	if err != nil {
		return false, err
	}
	if err := tr.claims.Reset(ctx, t.carpool.ID); err != nil {
		return false, apperr.Wrap(apperr.Downstream, err, "reset trip state")
	}
	tr.logger.Info("trip tracking reset", zap.String("carpool_id", t.carpool.ID))
	return true, nil
}

// claim treats a store failure as "not claimed": a missed notification is
// preferred over a duplicate.
func (tr *Tracker) claim(ctx context.Context, t *trip, key string) bool {
	ok, err := tr.claims.Claim(ctx, t.carpool.ID, key)
	if err != nil {
		tr.logger.Warn("trip claim failed",
			zap.String("code", string(apperr.Downstream)),
			zap.String("carpool_id", t.carpool.ID),
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (tr *Tracker) fireUpdate(ctx context.Context, t *trip, kind dto.NotificationType, to []*models.User, nextStop, when string) {
	if len(to) == 0 {
		return
	}
	driver := t.driverName()
	body := tr.composer.Compose(ctx,
		notify.TripUpdatePrompt(driver, nextStop, when),
		notify.TripUpdateText(driver, nextStop, when),
	)
	tr.deliverAll(ctx, t, kind, to, func(*models.User) (string, string) {
		return notify.TitleTripUpdate, body
	})
}

func (tr *Tracker) fireFinal(ctx context.Context, t *trip) {
	driver := t.driverName()
	dest := t.carpool.EndAddress
	tr.deliverAll(ctx, t, dto.NotificationFinalDestination, t.riders(), func(p *models.User) (string, string) {
		children := notify.JoinNames(t.childrenOf(p.ID))
		return notify.TitleTripCompleted, tr.composer.Compose(ctx,
			notify.TripEndedPrompt(driver, children, dest),
			notify.TripEndedText(driver, children, dest),
		)
	})
}

func (tr *Tracker) deliverAll(ctx context.Context, t *trip, kind dto.NotificationType, to []*models.User, text func(*models.User) (string, string)) {
	observability.TripNotifications.WithLabelValues(string(kind)).Inc()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tr.cfg.NotifyConcurrency)
	for _, p := range to {
		p := p
		g.Go(func() error {
			title, body := text(p)
			tr.dispatcher.Deliver(gctx, notify.Notification{
				Recipient: p,
				SenderID:  t.carpool.DriverID,
				Title:     title,
				Body:      body,
				Category:  models.CategoryTrip,
				Type:      string(kind),
				CarpoolID: t.carpool.ID,
			})
			return nil
		})
	}
	_ = g.Wait()

	tr.logger.Info("trip notification fired",
		zap.String("type", string(kind)),
		zap.String("carpool_id", t.carpool.ID),
		zap.Int("recipients", len(to)),
	)
	tr.events.Emit(ctx, events.TripEvent{
		Type:       "notification." + strings.ToLower(string(kind)),
		CarpoolID:  t.carpool.ID,
		DriverID:   t.carpool.DriverID,
		Recipients: userIDs(to),
		At:         tr.now(),
	})
}

func userIDs(users []*models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
