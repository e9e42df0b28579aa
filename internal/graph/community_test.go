package graph

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

func TestFriendsRoundTrip(t *testing.T) {
	schema, _ := newSchema(t)

	resp := schema.Exec(as("p1"), `mutation { addFriend(friendId: "d1") { userId friend { id firstName } } }`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("addFriend: %v", resp.Errors)
	}

	resp = schema.Exec(as("p1"), `{ getFriends { friend { firstName } } getFriend(friendId: "d1") { userId } }`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("getFriends: %v", resp.Errors)
	}
	var out struct {
		GetFriends []struct {
			Friend struct{ FirstName string }
		}
		GetFriend struct{ UserID string }
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.GetFriends) != 1 || out.GetFriends[0].Friend.FirstName != "Dana" || out.GetFriend.UserID != "p1" {
		t.Fatalf("friends = %+v", out)
	}

	resp = schema.Exec(as("p1"), `mutation { deleteFriend(friendId: "d1") }`, "", nil)
	if len(resp.Errors) > 0 || !strings.Contains(string(resp.Data), "true") {
		t.Fatalf("deleteFriend: %s %v", resp.Data, resp.Errors)
	}
	resp = schema.Exec(as("p1"), `{ getFriend(friendId: "d1") { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.NotFound) {
		t.Fatalf("code = %q", got)
	}
}

func TestGetUsersRequiresCaller(t *testing.T) {
	schema, _ := newSchema(t)
	resp := schema.Exec(context.Background(), `{ getUsers { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.Unauthenticated) {
		t.Fatalf("code = %q", got)
	}

	resp = schema.Exec(as("p1"), `{ getUsers { firstName } }`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("getUsers: %v", resp.Errors)
	}
	if data := string(resp.Data); !strings.Contains(data, "Dana") || !strings.Contains(data, "Pat") {
		t.Fatalf("users = %s", data)
	}
}

func TestConversationsForUser(t *testing.T) {
	schema, store := newSchema(t)
	at := time.Date(2024, 9, 1, 7, 0, 0, 0, time.UTC)
	store.Messages = append(store.Messages,
		models.Message{ID: "m1", SenderID: "d1", RecipientID: "p1", Text: "leaving now", CreatedAt: at},
		models.Message{ID: "m2", SenderID: "p1", RecipientID: "d1", Text: "thanks", CreatedAt: at.Add(time.Minute)},
	)

	resp := schema.Exec(as("p1"), `{ getConversationsForUser(userId: "p1") { recipientId recipientName messages { text } } }`, "", nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("getConversationsForUser: %v", resp.Errors)
	}
	var out struct {
		GetConversationsForUser []struct {
			RecipientID   string
			RecipientName string
			Messages      []struct{ Text string }
		}
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatal(err)
	}
	convos := out.GetConversationsForUser
	if len(convos) != 1 || convos[0].RecipientID != "d1" || !strings.Contains(convos[0].RecipientName, "Dana") {
		t.Fatalf("conversations = %+v", convos)
	}
	if len(convos[0].Messages) != 2 || convos[0].Messages[0].Text != "leaving now" {
		t.Fatalf("thread = %+v", convos[0].Messages)
	}

	resp = schema.Exec(as("d1"), `{ getConversationsForUser(userId: "p1") { recipientId } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.Forbidden) {
		t.Fatalf("code = %q", got)
	}
}

func TestAddRequestToCarpoolIsDriverOnly(t *testing.T) {
	schema, _ := newSchema(t)
	resp := schema.Exec(as("p1"), `mutation { addRequestToCarpool(carpoolId: "c1", requestId: "r1") { id } }`, "", nil)
	if got := errorCode(resp); got != string(apperr.Forbidden) {
		t.Fatalf("code = %q, errors = %v", got, resp.Errors)
	}
}

func TestAnonymousSubscriptionKeepsCode(t *testing.T) {
	schema, _ := newSchema(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := Subscriptions{Schema: schema}.Subscribe(ctx, `subscription { messageSent(recipientId: "p1") { id } }`, "", nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case msg, ok := <-stream:
		if !ok {
			t.Fatal("stream closed without an error response")
		}
		if got := errorCode(msg.(*graphql.Response)); got != string(apperr.Unauthenticated) {
			t.Fatalf("code = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}
