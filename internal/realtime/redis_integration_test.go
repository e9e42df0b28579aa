//go:build integration

package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

// Run with: TEST_REDIS_URL=redis://localhost:6379/15 go test -tags integration ./internal/realtime/
func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func startBus(t *testing.T, ctx context.Context, bus *RedisBus) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for !bus.Running() {
		if time.Now().After(deadline) {
			t.Fatal("bus never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return done
}

func TestRedisBusRelaysAcrossInstances(t *testing.T) {
	rdb := openTestRedis(t)
	channel := "carpool-test-" + uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := NewRedisBus(rdb, channel, NewHub(zap.NewNop(), 4), zap.NewNop())
	receiver := NewRedisBus(rdb, channel, NewHub(zap.NewNop(), 4), zap.NewNop())
	senderDone := startBus(t, ctx, sender)
	receiverDone := startBus(t, ctx, receiver)

	key := Key(KindLocation, "p1")
	local := sender.Subscribe(ctx, key)
	remote := receiver.Subscribe(ctx, key)

	sender.Publish(key, &dto.LocationData{CarpoolID: "c1", DriverID: "d1"})

	for name, ch := range map[string]<-chan interface{}{"local": local, "remote": remote} {
		got, ok := receive(t, ch).(*dto.LocationData)
		if !ok || got.CarpoolID != "c1" || got.DriverID != "d1" {
			t.Fatalf("%s payload = %+v", name, got)
		}
	}

	cancel()
	for _, done := range []<-chan error{senderDone, receiverDone} {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
	if sender.Running() {
		t.Fatal("bus still reports running after Run returned")
	}
}
