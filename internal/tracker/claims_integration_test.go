//go:build integration

package tracker

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Run with: TEST_REDIS_URL=redis://localhost:6379/15 go test -tags integration ./internal/tracker/
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

func TestRedisClaimsClaimOnceAndReset(t *testing.T) {
	rdb := openTestRedis(t)
	claims := NewRedisClaims(rdb, time.Minute)
	ctx := context.Background()
	carpoolID := uuid.NewString()
	t.Cleanup(func() { _ = claims.Reset(ctx, carpoolID) })

	ok, err := claims.Claim(ctx, carpoolID, leavingKey(carpoolID))
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, err = claims.Claim(ctx, carpoolID, leavingKey(carpoolID))
	if err != nil || ok {
		t.Fatalf("second claim = %v, %v", ok, err)
	}
	if ttl := rdb.TTL(ctx, redisTripKey(carpoolID)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	if err := claims.Reset(ctx, carpoolID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	ok, err = claims.Claim(ctx, carpoolID, leavingKey(carpoolID))
	if err != nil || !ok {
		t.Fatalf("claim after reset = %v, %v", ok, err)
	}
}

func TestRedisClaimsConcurrentClaimHasOneWinner(t *testing.T) {
	rdb := openTestRedis(t)
	ctx := context.Background()
	carpoolID := uuid.NewString()
	key := nearStopKey(uuid.NewString())
	t.Cleanup(func() { _ = NewRedisClaims(rdb, time.Minute).Reset(ctx, carpoolID) })

	const n = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// one store per goroutine, as separate API instances would have
			ok, err := NewRedisClaims(rdb, time.Minute).Claim(ctx, carpoolID, key)
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Fatalf("winners = %d, want 1", got)
	}
}
