package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimStore records which trip events already fired. Claim is atomic: for
// a given carpool and key exactly one caller ever gets true until Reset or
// the state expires.
type ClaimStore interface {
	Claim(ctx context.Context, carpoolID, key string) (bool, error)
	Reset(ctx context.Context, carpoolID string) error
}

func leavingKey(carpoolID string) string  { return "LEAVING:" + carpoolID }
func nearStopKey(requestID string) string { return "NEAR_STOP:" + requestID }
func finalKey(carpoolID string) string    { return "FINAL:" + carpoolID }

type tripState struct {
	fired   map[string]struct{}
	expires time.Time
}

// MemoryClaims keeps trip state in process. Suitable for a single instance.
type MemoryClaims struct {
	mu    sync.Mutex
	trips map[string]*tripState
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryClaims(ttl time.Duration) *MemoryClaims {
	return &MemoryClaims{trips: make(map[string]*tripState), ttl: ttl, now: time.Now}
}

func (m *MemoryClaims) Claim(_ context.Context, carpoolID, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state, ok := m.trips[carpoolID]
	if !ok || now.After(state.expires) {
		state = &tripState{fired: make(map[string]struct{})}
		m.trips[carpoolID] = state
	}
	state.expires = now.Add(m.ttl)
	if _, done := state.fired[key]; done {
		return false, nil
	}
	state.fired[key] = struct{}{}
	return true, nil
}

func (m *MemoryClaims) Reset(_ context.Context, carpoolID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, carpoolID)
	return nil
}

// Sweep drops expired trips. Run it periodically.
func (m *MemoryClaims) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, state := range m.trips {
		if now.After(state.expires) {
			delete(m.trips, id)
			n++
		}
	}
	return n
}

// RedisClaims keeps one set per carpool so claims hold across API instances.
type RedisClaims struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClaims(rdb *redis.Client, ttl time.Duration) *RedisClaims {
	return &RedisClaims{rdb: rdb, ttl: ttl}
}

func redisTripKey(carpoolID string) string {
	return "trip:notified:" + carpoolID
}

func (r *RedisClaims) Claim(ctx context.Context, carpoolID, key string) (bool, error) {
	setKey := redisTripKey(carpoolID)
	pipe := r.rdb.TxPipeline()
	added := pipe.SAdd(ctx, setKey, key)
	pipe.Expire(ctx, setKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("claim %s for carpool %s: %w", key, carpoolID, err)
	}
	return added.Val() == 1, nil
}

func (r *RedisClaims) Reset(ctx context.Context, carpoolID string) error {
	if err := r.rdb.Del(ctx, redisTripKey(carpoolID)).Err(); err != nil {
		return fmt.Errorf("reset carpool %s: %w", carpoolID, err)
	}
	return nil
}
