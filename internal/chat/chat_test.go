package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/repository/repotest"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

type recordingBus struct {
	mu       sync.Mutex
	keys     []string
	payloads []interface{}
}

func (b *recordingBus) Publish(key string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
	b.payloads = append(b.payloads, payload)
}

type recordingPusher struct {
	sent []notify.Notification
}

func (p *recordingPusher) Push(_ context.Context, n notify.Notification) {
	p.sent = append(p.sent, n)
}

func newService(t *testing.T) (*Service, *recordingBus, *recordingPusher) {
	t.Helper()
	store := repotest.NewStore()
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		store.Users[id] = models.User{ID: id, FirstName: strings.ToUpper(id)}
	}
	store.Groups["g1"] = models.Group{ID: "g1", Name: "Lincoln"}
	store.AddMember("g1", "u1")
	store.AddMember("g1", "u2")
	store.AddMember("g1", "u3")

	bus := &recordingBus{}
	pusher := &recordingPusher{}
	return NewService(store.Repository(), bus, pusher, zap.NewNop()), bus, pusher
}

var u1 = &auth.Identity{UID: "u1"}

func TestSendMessageReachesOnlyRecipient(t *testing.T) {
	svc, bus, pusher := newService(t)

	msg, err := svc.SendMessage(context.Background(), u1, "u2", "  pickup at 8?  ")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Text != "pickup at 8?" {
		t.Fatalf("text = %q", msg.Text)
	}
	if len(bus.keys) != 1 || bus.keys[0] != "message_u2" {
		t.Fatalf("published = %v", bus.keys)
	}
	if got := bus.payloads[0].(*dto.Message); got.Sender == nil || got.Sender.ID != "u1" {
		t.Fatalf("payload = %+v", got)
	}
	if len(pusher.sent) != 1 || pusher.sent[0].Category != models.CategoryChat {
		t.Fatalf("push = %+v", pusher.sent)
	}
	if !strings.HasPrefix(pusher.sent[0].Title, notify.TitleNewMessage) {
		t.Fatalf("title = %q", pusher.sent[0].Title)
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.SendMessage(ctx, u1, "u2", "   "); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("blank: %v", err)
	}
	if _, err := svc.SendMessage(ctx, u1, "u1", "hi"); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("self: %v", err)
	}
	if _, err := svc.SendMessage(ctx, u1, "ghost", "hi"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing: %v", err)
	}
	if _, err := svc.SendMessage(ctx, u1, "u2", strings.Repeat("x", maxMessageRunes+1)); !apperr.Is(err, apperr.BadUserInput) {
		t.Fatalf("too long: %v", err)
	}
}

func TestConversationRequiresParticipant(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.SendMessage(ctx, u1, "u2", "one")
	_, _ = svc.SendMessage(ctx, &auth.Identity{UID: "u2"}, "u1", "two")
	_, _ = svc.SendMessage(ctx, u1, "u3", "other thread")

	msgs, err := svc.Conversation(ctx, u1, "u1", "u2")
	if err != nil || len(msgs) != 2 {
		t.Fatalf("conversation = %d, %v", len(msgs), err)
	}
	if _, err := svc.Conversation(ctx, &auth.Identity{UID: "u4"}, "u1", "u2"); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("outsider: %v", err)
	}
}

func TestGroupMessageFansOutPerMember(t *testing.T) {
	svc, bus, _ := newService(t)

	if _, err := svc.SendGroupMessage(context.Background(), u1, "g1", "running late"); err != nil {
		t.Fatal(err)
	}
	keys := append([]string(nil), bus.keys...)
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "groupMessage_u2" || keys[1] != "groupMessage_u3" {
		t.Fatalf("published = %v", keys)
	}
}

func TestGroupMessageRequiresMembership(t *testing.T) {
	svc, bus, _ := newService(t)
	_, err := svc.SendGroupMessage(context.Background(), &auth.Identity{UID: "u4"}, "g1", "hi")
	if !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("err = %v", err)
	}
	if len(bus.keys) != 0 {
		t.Fatal("nothing should be published")
	}
	if _, err := svc.GroupMessages(context.Background(), u1, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing group: %v", err)
	}
}
