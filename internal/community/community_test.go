package community

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/repository/repotest"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

func ptr(s string) *string { return &s }

func newService() (*Service, *repotest.Store) {
	store := repotest.NewStore()
	return NewService(store.Repository(), zap.NewNop()), store
}

func TestCreateUserUsesIdentity(t *testing.T) {
	svc, _ := newService()
	caller := &auth.Identity{UID: "u1", Email: "sam@example.com"}

	u, err := svc.CreateUser(context.Background(), caller, dto.CreateUserInput{FirstName: " Sam "})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != "u1" || u.Email != "sam@example.com" || u.FirstName != "Sam" {
		t.Fatalf("user = %+v", u)
	}

	if _, err := svc.CreateUser(context.Background(), &auth.Identity{UID: "u2"}, dto.CreateUserInput{FirstName: "Kim"}); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("missing email: err = %v", err)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	svc, store := newService()
	store.Users["u1"] = models.User{ID: "u1", FirstName: "Sam", City: "Burnaby", Email: "s@x.io"}
	caller := &auth.Identity{UID: "u1"}

	u, err := svc.UpdateUser(context.Background(), caller, dto.UpdateUserInput{City: ptr("Vancouver")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.City != "Vancouver" || u.FirstName != "Sam" {
		t.Fatalf("user = %+v", u)
	}

	if _, err := svc.UpdateUser(context.Background(), caller, dto.UpdateUserInput{FirstName: ptr("  ")}); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("blank name: err = %v", err)
	}
	if _, err := svc.UpdateUser(context.Background(), &auth.Identity{UID: "ghost"}, dto.UpdateUserInput{}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestUpdatePushTokenClears(t *testing.T) {
	svc, store := newService()
	store.Users["u1"] = models.User{ID: "u1", FirstName: "Sam"}
	caller := &auth.Identity{UID: "u1"}

	u, err := svc.UpdatePushToken(context.Background(), caller, ptr("ExponentPushToken[abc]"))
	if err != nil || u.PushToken() != "ExponentPushToken[abc]" {
		t.Fatalf("set: user = %+v, err = %v", u, err)
	}
	u, err = svc.UpdatePushToken(context.Background(), caller, ptr(""))
	if err != nil || u.PushToken() != "" {
		t.Fatalf("clear: user = %+v, err = %v", u, err)
	}
}

func TestGroupMembership(t *testing.T) {
	svc, store := newService()
	store.Users["a"] = models.User{ID: "a", FirstName: "Alex"}
	store.Users["b"] = models.User{ID: "b", FirstName: "Blair"}
	store.Users["c"] = models.User{ID: "c", FirstName: "Casey"}
	alex := &auth.Identity{UID: "a"}
	casey := &auth.Identity{UID: "c"}
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, alex, dto.CreateGroupInput{Name: "Lincoln"})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if len(g.Members) != 1 || g.Members[0].UserID != "a" {
		t.Fatalf("creator should be the only member: %+v", g.Members)
	}

	if _, err := svc.AddMember(ctx, casey, g.ID, "c"); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("non-member add: err = %v", err)
	}
	if _, err := svc.AddMember(ctx, alex, g.ID, "nobody"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("unknown user add: err = %v", err)
	}
	g, err = svc.AddMember(ctx, alex, g.ID, "b")
	if err != nil || len(g.Members) != 2 {
		t.Fatalf("AddMember: members = %+v, err = %v", g, err)
	}

	if _, err := svc.GroupWithUsers(ctx, casey, g.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("outsider read: err = %v", err)
	}
	if _, err := svc.GroupWithUsers(ctx, alex, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing group: err = %v", err)
	}

	removed, err := svc.RemoveMember(ctx, alex, g.ID, "b")
	if err != nil || !removed {
		t.Fatalf("RemoveMember = %v, %v", removed, err)
	}
	removed, _ = svc.RemoveMember(ctx, alex, g.ID, "b")
	if removed {
		t.Fatal("second removal should report false")
	}

	groups, _ := svc.Groups(ctx, alex)
	if len(groups) != 1 || groups[0].Name != "Lincoln" {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestCreateVehicleSeatBounds(t *testing.T) {
	svc, _ := newService()
	caller := &auth.Identity{UID: "u1"}
	in := dto.CreateVehicleInput{Make: "Honda", Model: "Odyssey", LicensePlate: "ab 123", Seats: 7}

	v, err := svc.CreateVehicle(context.Background(), caller, in)
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	if v.UserID != "u1" || v.LicensePlate != "AB 123" || v.ID == "" {
		t.Fatalf("vehicle = %+v", v)
	}

	for _, seats := range []int32{0, 16} {
		in.Seats = seats
		if _, err := svc.CreateVehicle(context.Background(), caller, in); !apperr.Is(err, apperr.BadUserInput) {
			t.Fatalf("seats %d: err = %v", seats, err)
		}
	}

	list, _ := svc.VehiclesForUser(context.Background(), "u1")
	if len(list) != 1 {
		t.Fatalf("vehicles = %+v", list)
	}
}

func TestCreateChild(t *testing.T) {
	svc, _ := newService()
	caller := &auth.Identity{UID: "p1"}

	if _, err := svc.CreateChild(context.Background(), caller, dto.CreateChildInput{}); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("blank child: err = %v", err)
	}
	c, err := svc.CreateChild(context.Background(), caller, dto.CreateChildInput{FirstName: "Mia", LastName: ptr("Li")})
	if err != nil || c.UserID != "p1" || c.LastName != "Li" {
		t.Fatalf("child = %+v, err = %v", c, err)
	}
	kids, _ := svc.ChildrenForUser(context.Background(), "p1")
	if len(kids) != 1 {
		t.Fatalf("children = %+v", kids)
	}
}

func TestCommunityCentersNearestFive(t *testing.T) {
	svc, store := newService()
	lat, lon := 49.25, -123.1
	for i := 6; i >= 0; i-- {
		cLat, cLon := utils.OffsetMeters(lat, lon, float64(i)*1000, 0)
		store.Centers = append(store.Centers, models.CommunityCenter{
			ID: string(rune('a' + i)), Name: "Center", Lat: cLat, Lon: cLon,
		})
	}

	got, err := svc.CommunityCenters(context.Background(), lat, lon)
	if err != nil {
		t.Fatalf("CommunityCenters: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ID != "a" || got[4].ID != "e" {
		t.Fatalf("order = %s..%s", got[0].ID, got[4].ID)
	}
	if got[1].Distance < 990 || got[1].Distance > 1010 {
		t.Fatalf("distance = %f", got[1].Distance)
	}
}

func TestSearchSchools(t *testing.T) {
	svc, store := newService()
	store.Schools = []models.School{{ID: "1", Name: "Lincoln Elementary"}, {ID: "2", Name: "Lord Byng"}, {ID: "3", Name: "Kitsilano"}}

	got, _ := svc.SearchSchools(context.Background(), "l")
	if len(got) != 2 {
		t.Fatalf("schools = %+v", got)
	}
	got, _ = svc.SearchSchools(context.Background(), "  ")
	if got == nil || len(got) != 0 {
		t.Fatalf("blank prefix should give an empty list, got %+v", got)
	}
}

func TestUpdatePreferences(t *testing.T) {
	svc, _ := newService()
	caller := &auth.Identity{UID: "u1"}
	off := false

	pref, err := svc.UpdatePreferences(context.Background(), caller, dto.PreferencesInput{ChatAlerts: &off})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if pref.ChatAlerts || !pref.TripAlerts || !pref.PushEnabled {
		t.Fatalf("pref = %+v", pref)
	}
	got, _ := svc.Preferences(context.Background(), caller)
	if got.Allows(models.CategoryChat) {
		t.Fatal("chat pushes should be muted")
	}
}
