package community

import (
	"context"
	"testing"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

func TestFriends(t *testing.T) {
	svc, store := newService()
	store.Users["u1"] = models.User{ID: "u1", FirstName: "Ada"}
	store.Users["u2"] = models.User{ID: "u2", FirstName: "Bo"}
	ctx := context.Background()
	caller := &auth.Identity{UID: "u1"}

	f, err := svc.AddFriend(ctx, caller, "u2")
	if err != nil {
		t.Fatalf("AddFriend: %v", err)
	}
	if f.Friend == nil || f.Friend.FirstName != "Bo" {
		t.Fatalf("friend = %+v", f)
	}
	again, err := svc.AddFriend(ctx, caller, "u2")
	if err != nil || again.ID != f.ID {
		t.Fatalf("second add: %+v, %v", again, err)
	}

	list, _ := svc.Friends(ctx, caller)
	if len(list) != 1 {
		t.Fatalf("friends = %d, want 1", len(list))
	}
	// Friendship is one-directional.
	if other, _ := svc.Friends(ctx, &auth.Identity{UID: "u2"}); len(other) != 0 {
		t.Fatalf("u2 friends = %d", len(other))
	}

	if _, err := svc.AddFriend(ctx, caller, "u1"); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("self: err = %v", err)
	}
	if _, err := svc.AddFriend(ctx, caller, "ghost"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("ghost: err = %v", err)
	}

	removed, _ := svc.RemoveFriend(ctx, caller, "u2")
	if !removed {
		t.Fatal("RemoveFriend reported nothing removed")
	}
	if _, err := svc.Friend(ctx, caller, "u2"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("after remove: err = %v", err)
	}
}

func TestUsersSortedByName(t *testing.T) {
	svc, store := newService()
	store.Users["a"] = models.User{ID: "a", FirstName: "Zoe"}
	store.Users["b"] = models.User{ID: "b", FirstName: "Ali"}

	users, err := svc.Users(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].FirstName != "Ali" {
		t.Fatalf("users = %+v", users)
	}
}
