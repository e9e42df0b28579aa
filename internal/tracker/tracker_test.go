package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/events"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/repository/repotest"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

const (
	pickupLat = 45.5017
	pickupLon = -73.5673
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (d *recordingDispatcher) Deliver(_ context.Context, n notify.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) recipients(kind dto.NotificationType) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for _, n := range d.sent {
		if n.Type == string(kind) {
			ids = append(ids, n.Recipient.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

type templateComposer struct{}

func (templateComposer) Compose(_ context.Context, _, fallback string) string { return fallback }

type recordingBus struct {
	mu   sync.Mutex
	keys []string
}

func (b *recordingBus) Publish(key string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
}

type failingClaims struct{}

func (failingClaims) Claim(context.Context, string, string) (bool, error) {
	return false, errors.New("redis unavailable")
}
func (failingClaims) Reset(context.Context, string) error { return nil }

type fixture struct {
	store      *repotest.Store
	tracker    *Tracker
	dispatcher *recordingDispatcher
	bus        *recordingBus
	claims     ClaimStore
}

func ptr(s string) *string { return &s }

func newFixture(t *testing.T, claims ClaimStore) *fixture {
	t.Helper()
	store := repotest.NewStore()
	store.Users["d1"] = models.User{ID: "d1", FirstName: "Dana"}
	store.Users["p1"] = models.User{ID: "p1", FirstName: "Pat"}
	store.Users["p2"] = models.User{ID: "p2", FirstName: "Quinn"}
	store.Children["k1"] = models.Child{ID: "k1", UserID: "p1", FirstName: "Mia"}
	store.Children["k2"] = models.Child{ID: "k2", UserID: "p2", FirstName: "Leo"}
	store.Children["k3"] = models.Child{ID: "k3", UserID: "d1", FirstName: "Ava"}
	store.Carpools["c1"] = models.Carpool{ID: "c1", DriverID: "d1", VehicleID: "v1", GroupID: "g1", EndAddress: "Lincoln Elementary"}

	pickup := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	store.Requests["r1"] = models.Request{ID: "r1", ParentID: "p1", GroupID: "g1", CarpoolID: ptr("c1"), IsApproved: true,
		StartingAddress: "12 Elm St", StartingLat: pickupLat, StartingLon: pickupLon, PickupTime: pickup}
	store.Requests["r2"] = models.Request{ID: "r2", ParentID: "p2", GroupID: "g1", CarpoolID: ptr("c1"), IsApproved: true,
		StartingAddress: "9 Oak Ave", StartingLat: 45.51, StartingLon: -73.58, PickupTime: pickup.Add(5 * time.Minute)}
	store.Requests["r3"] = models.Request{ID: "r3", ParentID: "d1", GroupID: "g1", CarpoolID: ptr("c1"), IsApproved: true,
		PickupTime: pickup.Add(-time.Minute)}
	store.RequestChildren["r1"] = []string{"k1"}
	store.RequestChildren["r2"] = []string{"k2"}
	store.RequestChildren["r3"] = []string{"k3"}

	if claims == nil {
		claims = NewMemoryClaims(time.Hour)
	}
	f := &fixture{store: store, dispatcher: &recordingDispatcher{}, bus: &recordingBus{}, claims: claims}
	f.tracker = New(store.Repository(), claims, f.bus, f.dispatcher, templateComposer{},
		events.NewLogEmitter(zap.NewNop()),
		config.TrackerConfig{ProximityMeters: 50, StateTTL: time.Hour, NotifyConcurrency: 4},
		zap.NewNop())
	return f
}

var driver = &auth.Identity{UID: "d1"}

func farReport() dto.LocationReport {
	return dto.LocationReport{
		CarpoolID: "c1",
		Lat:       45.60,
		Lon:       -73.70,
		NextStop:  dto.NextStopInput{Address: "12 Elm St", RequestID: "r1"},
	}
}

func TestLeavingFiresOnceForAllRiders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	r := farReport()
	r.IsLeaving = true
	for i := 0; i < 3; i++ {
		if _, err := f.tracker.Report(ctx, driver, r); err != nil {
			t.Fatalf("Report: %v", err)
		}
	}

	got := f.dispatcher.recipients(dto.NotificationLeaving)
	if len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Fatalf("leaving recipients = %v, want [p1 p2]", got)
	}
}

func TestLeavingConcurrentReportsFireOnce(t *testing.T) {
	f := newFixture(t, nil)
	r := farReport()
	r.IsLeaving = true

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.tracker.Report(context.Background(), driver, r)
		}()
	}
	wg.Wait()

	if got := f.dispatcher.recipients(dto.NotificationLeaving); len(got) != 2 {
		t.Fatalf("leaving delivered %d times, want 2", len(got))
	}
}

func TestNearStopBoundaryIsInclusive(t *testing.T) {
	f := newFixture(t, nil)
	lat, lon := utils.OffsetMeters(pickupLat, pickupLon, 40, 20)
	f.tracker.cfg.ProximityMeters = utils.HaversineMeters(lat, lon, pickupLat, pickupLon)

	r := farReport()
	r.Lat, r.Lon = lat, lon
	if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
		t.Fatal(err)
	}
	if got := f.dispatcher.recipients(dto.NotificationNearStop); len(got) != 1 || got[0] != "p1" {
		t.Fatalf("near-stop recipients = %v, want [p1]", got)
	}
}

func TestNearStopOutsideRadiusDoesNotFire(t *testing.T) {
	f := newFixture(t, nil)
	lat, lon := utils.OffsetMeters(pickupLat, pickupLon, 51, 0)

	r := farReport()
	r.Lat, r.Lon = lat, lon
	if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
		t.Fatal(err)
	}
	if got := f.dispatcher.recipients(dto.NotificationNearStop); len(got) != 0 {
		t.Fatalf("near-stop fired at 51m: %v", got)
	}
}

func TestNearStopNotifiesOnlyThatParentOnce(t *testing.T) {
	f := newFixture(t, nil)
	lat, lon := utils.OffsetMeters(pickupLat, pickupLon, 10, 0)

	r := farReport()
	r.Lat, r.Lon = lat, lon
	for i := 0; i < 3; i++ {
		if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.dispatcher.recipients(dto.NotificationNearStop); len(got) != 1 || got[0] != "p1" {
		t.Fatalf("near-stop recipients = %v, want [p1]", got)
	}
}

func TestNearStopIgnoresRequestsOutsideManifest(t *testing.T) {
	f := newFixture(t, nil)
	r := farReport()
	r.Lat, r.Lon = pickupLat, pickupLon
	r.NextStop.RequestID = "not-in-carpool"
	if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
		t.Fatal(err)
	}
	if got := f.dispatcher.recipients(dto.NotificationNearStop); len(got) != 0 {
		t.Fatalf("unexpected near-stop: %v", got)
	}
}

func TestFinalDestinationMentionsChildren(t *testing.T) {
	f := newFixture(t, nil)
	r := farReport()
	r.IsFinalDestination = true
	for i := 0; i < 2; i++ {
		if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
			t.Fatal(err)
		}
	}

	if got := f.dispatcher.recipients(dto.NotificationFinalDestination); len(got) != 2 {
		t.Fatalf("final recipients = %v", got)
	}
	for _, n := range f.dispatcher.sent {
		if n.Recipient.ID == "p1" {
			want := "The carpool, driven by Dana, has ended. Mia have arrived safely at Lincoln Elementary."
			if n.Body != want || n.Title != notify.TitleTripCompleted {
				t.Fatalf("p1 got %q / %q", n.Title, n.Body)
			}
		}
	}
}

func TestLocationFansOutToRidersButNotDriver(t *testing.T) {
	f := newFixture(t, nil)
	loc, err := f.tracker.Report(context.Background(), driver, farReport())
	if err != nil {
		t.Fatal(err)
	}
	if loc.CarpoolID != "c1" || loc.SenderID != "d1" || loc.NextStop.RequestID != "r1" {
		t.Fatalf("location = %+v", loc)
	}
	sort.Strings(f.bus.keys)
	if len(f.bus.keys) != 2 || f.bus.keys[0] != "location_p1" || f.bus.keys[1] != "location_p2" {
		t.Fatalf("published keys = %v", f.bus.keys)
	}
}

func TestUnknownCarpoolHasNoSideEffects(t *testing.T) {
	f := newFixture(t, nil)
	r := farReport()
	r.CarpoolID = "missing"
	r.IsLeaving = true

	_, err := f.tracker.Report(context.Background(), driver, r)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if len(f.bus.keys) != 0 || len(f.dispatcher.sent) != 0 {
		t.Fatal("no events should be published for an unknown carpool")
	}
	ok, _ := f.claims.Claim(context.Background(), "missing", leavingKey("missing"))
	if !ok {
		t.Fatal("no claim should have been recorded")
	}
}

func TestOnlyDriverMayReport(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.tracker.Report(context.Background(), &auth.Identity{UID: "p1"}, farReport())
	if !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestInvalidCoordinates(t *testing.T) {
	f := newFixture(t, nil)
	r := farReport()
	r.Lat = 91
	if _, err := f.tracker.Report(context.Background(), driver, r); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestClaimStoreFailureSkipsNotificationButStillPublishes(t *testing.T) {
	f := newFixture(t, failingClaims{})
	r := farReport()
	r.IsLeaving = true
	if _, err := f.tracker.Report(context.Background(), driver, r); err != nil {
		t.Fatalf("report should succeed: %v", err)
	}
	if len(f.dispatcher.sent) != 0 {
		t.Fatal("no notification without a claim")
	}
	if len(f.bus.keys) != 2 {
		t.Fatalf("location should still fan out, got %v", f.bus.keys)
	}
}

func TestNotifyAndReset(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	info := dto.NotificationInfo{CarpoolID: "c1", NotificationType: dto.NotificationLeaving}

	fired, err := f.tracker.Notify(ctx, driver, info)
	if err != nil || !fired {
		t.Fatalf("first notify = %v, %v", fired, err)
	}
	fired, _ = f.tracker.Notify(ctx, driver, info)
	if fired {
		t.Fatal("second notify should be deduplicated")
	}

	if ok, err := f.tracker.ResetTracking(ctx, driver, "c1"); err != nil || !ok {
		t.Fatalf("reset = %v, %v", ok, err)
	}
	fired, _ = f.tracker.Notify(ctx, driver, info)
	if !fired {
		t.Fatal("notify should fire again after reset")
	}

	_, err = f.tracker.Notify(ctx, driver, dto.NotificationInfo{
		CarpoolID:        "c1",
		NotificationType: dto.NotificationNearStop,
		NextStop:         dto.NextStopInput{RequestID: "nope"},
	})
	if !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("err = %v, want BAD_USER_INPUT", err)
	}
}

func TestMemoryClaimsExpire(t *testing.T) {
	m := NewMemoryClaims(time.Minute)
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := m.Claim(ctx, "c1", "LEAVING:c1"); !ok {
		t.Fatal("first claim should win")
	}
	if ok, _ := m.Claim(ctx, "c1", "LEAVING:c1"); ok {
		t.Fatal("second claim should lose")
	}
	now = now.Add(2 * time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if ok, _ := m.Claim(ctx, "c1", "LEAVING:c1"); !ok {
		t.Fatal("claim should win after expiry")
	}
}
