package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisBusDeliversLocallyWhenRunFails(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)
	bus := NewRedisBus(unreachableRedis(t), "trips", hub, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, Key(KindMessage, "p1"))

	runCtx, stop := context.WithTimeout(ctx, 2*time.Second)
	defer stop()
	if err := bus.Run(runCtx); err == nil {
		t.Fatal("Run against an unreachable server should fail")
	}
	if bus.Running() {
		t.Fatal("bus must not report running after Run failed")
	}

	bus.Publish(Key(KindMessage, "p1"), &dto.Message{ID: "m1", Text: "on our way"})
	got, ok := receive(t, ch).(*dto.Message)
	if !ok || got.ID != "m1" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestRedisBusDeliversLocallyBeforeRun(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)
	bus := NewRedisBus(nil, "trips", hub, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, Key(KindLocation, "p1"))
	bus.Publish(Key(KindLocation, "p1"), &dto.LocationData{CarpoolID: "c1"})

	if got := receive(t, ch).(*dto.LocationData); got.CarpoolID != "c1" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestRedisBusDrainsQueuedEventsLocally(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)
	bus := NewRedisBus(nil, "trips", hub, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, Key(KindLocation, "p1"))
	data, err := json.Marshal(&dto.LocationData{CarpoolID: "c9"})
	if err != nil {
		t.Fatal(err)
	}
	bus.outbox <- envelope{Key: Key(KindLocation, "p1"), Data: data}
	bus.drainLocally()

	if got := receive(t, ch).(*dto.LocationData); got.CarpoolID != "c9" {
		t.Fatalf("payload = %+v", got)
	}
	if len(bus.outbox) != 0 {
		t.Fatal("outbox should be empty after draining")
	}
}
