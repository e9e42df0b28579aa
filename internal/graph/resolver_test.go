package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/carpool"
	"github.com/chachabrian/carpool-backend/internal/chat"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/events"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/repository/repotest"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/internal/tracker"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

type nopPush struct {
	mu     sync.Mutex
	tokens []string
}

func (*nopPush) Name() string { return "test" }

func (p *nopPush) Send(_ context.Context, token string, _ services.Push) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	return nil
}

func ptr(s string) *string { return &s }

func newSchema(t *testing.T) (*graphql.Schema, *repotest.Store) {
	t.Helper()
	logger := zap.NewNop()
	store := repotest.NewStore()
	store.Users["d1"] = models.User{ID: "d1", FirstName: "Dana", Email: "d@x.io"}
	store.Users["p1"] = models.User{ID: "p1", FirstName: "Pat", Email: "p@x.io"}
	store.Groups["g1"] = models.Group{ID: "g1", Name: "Lincoln"}
	store.AddMember("g1", "d1")
	store.AddMember("g1", "p1")
	store.Children["k1"] = models.Child{ID: "k1", UserID: "p1", FirstName: "Mia"}
	store.Carpools["c1"] = models.Carpool{ID: "c1", DriverID: "d1", VehicleID: "v1", GroupID: "g1", EndAddress: "Lincoln Elementary"}
	store.Requests["r1"] = models.Request{ID: "r1", ParentID: "p1", GroupID: "g1", CarpoolID: ptr("c1"), IsApproved: true,
		StartingAddress: "12 Elm St", StartingLat: 45.5017, StartingLon: -73.5673,
		PickupTime: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	store.SetRequestChildren("r1", "k1")

	repo := store.Repository()
	hub := realtime.NewHub(logger, 8)
	emitter := events.NewLogEmitter(logger)
	dispatcher := notify.NewDispatcher(hub, &nopPush{}, repo.User, time.Second, logger)
	composer := notify.NewComposer(nil, time.Second, logger)

	resolver := NewResolver(
		carpool.NewEngine(repo, dispatcher, emitter, config.MatchingConfig{EnforceCapacity: true, PickupWindow: time.Hour}, logger),
		tracker.New(repo, tracker.NewMemoryClaims(time.Hour), hub, dispatcher, composer, emitter,
			config.TrackerConfig{ProximityMeters: 50, StateTTL: time.Hour, NotifyConcurrency: 2}, logger),
		chat.NewService(repo, hub, dispatcher, logger),
		community.NewService(repo, logger),
		hub,
		logger,
	)
	schema, err := NewSchema(resolver, 12)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema, store
}

func as(uid string) context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{UID: uid})
}

func errorCode(resp *graphql.Response) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

func TestAnonymousCallerIsRejected(t *testing.T) {
	schema, _ := newSchema(t)
	resp := schema.Exec(context.Background(), `{ getGroups { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.Unauthenticated) {
		t.Fatalf("code = %q, errors = %v", got, resp.Errors)
	}
}

func TestCreateAndReadUser(t *testing.T) {
	schema, _ := newSchema(t)
	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UID: "n1", Email: "new@x.io"})

	resp := schema.Exec(ctx, `mutation { createUser(input: {firstName: "Noa", city: "Laval"}) { id email city } }`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("createUser: %v", resp.Errors)
	}

	resp = schema.Exec(ctx, `query($id: String!) { getUser(id: $id) { firstName email lastName } }`, "",
		map[string]interface{}{"id": "n1"})
	if len(resp.Errors) > 0 {
		t.Fatalf("getUser: %v", resp.Errors)
	}
	var out struct {
		GetUser struct {
			FirstName string
			Email     string
			LastName  *string
		}
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatal(err)
	}
	if out.GetUser.FirstName != "Noa" || out.GetUser.Email != "new@x.io" || out.GetUser.LastName != nil {
		t.Fatalf("user = %+v", out.GetUser)
	}
}

func TestTypedErrorsCarryCode(t *testing.T) {
	schema, _ := newSchema(t)
	resp := schema.Exec(as("p1"), `{ getCarpoolWithRequests(carpoolId: "missing") { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.NotFound) {
		t.Fatalf("code = %q", got)
	}

	resp = schema.Exec(as("p1"), `mutation { createVehicle(input: {make: "Kia", model: "Carnival", year: "2022", licensePlate: "X", seats: 40, color: "red"}) { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.BadUserInput) {
		t.Fatalf("code = %q", got)
	}
}

func TestSubscriptionIsPrivate(t *testing.T) {
	schema, _ := newSchema(t)
	ctx, cancel := context.WithCancel(as("p1"))
	defer cancel()

	stream, err := Subscriptions{Schema: schema}.Subscribe(ctx, `subscription { locationReceived(recipientId: "d1") { carpoolId } }`, "", nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case msg, ok := <-stream:
		if !ok {
			t.Fatal("stream closed without an error response")
		}
		resp := msg.(*graphql.Response)
		if got := errorCode(resp); got != string(apperr.Forbidden) {
			t.Fatalf("code = %q, errors = %v", got, resp.Errors)
		}
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestSendLocationReachesRiderSubscription(t *testing.T) {
	schema, _ := newSchema(t)
	ctx, cancel := context.WithCancel(as("p1"))
	defer cancel()

	stream, err := schema.Subscribe(ctx, `subscription { locationReceived(recipientId: "p1") { carpoolId driverId nextStop { requestId } } }`, "", nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	resp := schema.Exec(as("d1"), `mutation {
		sendLocation(carpoolId: "c1", lat: 45.60, lon: -73.70, nextStop: {address: "12 Elm St", requestId: "r1"}) { senderId }
	}`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("sendLocation: %v", resp.Errors)
	}

	select {
	case msg := <-stream:
		got := msg.(*graphql.Response)
		if len(got.Errors) > 0 {
			t.Fatalf("subscription error: %v", got.Errors)
		}
		data := string(got.Data)
		if !strings.Contains(data, `"carpoolId":"c1"`) || !strings.Contains(data, `"requestId":"r1"`) {
			t.Fatalf("payload = %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("rider never received the location")
	}
}

func TestRiderCannotSendLocation(t *testing.T) {
	schema, _ := newSchema(t)
	resp := schema.Exec(as("p1"), `mutation {
		sendLocation(carpoolId: "c1", lat: 45.6, lon: -73.7, nextStop: {address: "a", requestId: "r1"}) { senderId }
	}`, "", nil)
	if got := errorCode(resp); got != string(apperr.Forbidden) {
		t.Fatalf("code = %q", got)
	}
}

func TestFailMasksInternalErrors(t *testing.T) {
	r := &Resolver{logger: zap.NewNop()}
	err := r.fail("op", errors.New("pq: relation does not exist"))
	if strings.Contains(err.Error(), "pq") {
		t.Fatalf("leaked: %v", err)
	}
	if r.fail("op", nil) != nil {
		t.Fatal("nil should stay nil")
	}
}
