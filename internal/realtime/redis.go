package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

type envelope struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// payloadFor returns a fresh value of the type carried by kind, so a relayed
// event reaches local subscribers with the same Go type a local publish has.
func payloadFor(kind Kind) (interface{}, bool) {
	switch kind {
	case KindLocation:
		return &dto.LocationData{}, true
	case KindNotification:
		return &dto.ForegroundNotification{}, true
	case KindMessage:
		return &dto.Message{}, true
	case KindGroupMessage:
		return &dto.GroupMessage{}, true
	}
	return nil, false
}

// RedisBus relays every publish through one Redis pub/sub channel so
// subscribers on any API instance see it. Delivery still ends in the local
// Hub, which keeps the drop-on-slow-subscriber behavior. While the relay is
// not running, publishes go straight to the local Hub.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	outbox  chan envelope
	logger  *zap.Logger

	mu      sync.RWMutex
	running bool
}

func NewRedisBus(rdb *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
		outbox:  make(chan envelope, 1024),
		logger:  logger,
	}
}

func (b *RedisBus) Subscribe(ctx context.Context, key string) <-chan interface{} {
	return b.hub.Subscribe(ctx, key)
}

// Publish queues the event for relay. If the relay is down or the queue is
// full the event is delivered locally only.
func (b *RedisBus) Publish(key string, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		b.hub.Publish(key, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("encode bus event", zap.String("key", key), zap.Error(err))
		b.hub.Publish(key, payload)
		return
	}
	select {
	case b.outbox <- envelope{Key: key, Data: data}:
	default:
		b.logger.Warn("redis relay queue full, delivering locally", zap.String("key", key))
		b.hub.Publish(key, payload)
	}
}

// Running reports whether publishes are currently relayed through Redis.
func (b *RedisBus) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Run drains the outbox and consumes the relay channel until ctx ends or
// the subscription drops. Events still queued when it returns are delivered
// locally. Run may be called again after it returns.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	relayCtx, cancel := context.WithCancel(ctx)
	relayDone := make(chan struct{})
	b.setRunning(true)
	defer func() {
		b.setRunning(false)
		cancel()
		<-relayDone
		b.drainLocally()
	}()
	go func() {
		defer close(relayDone)
		b.relay(relayCtx)
	}()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *RedisBus) setRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}

func (b *RedisBus) drainLocally() {
	for {
		select {
		case env := <-b.outbox:
			raw, err := json.Marshal(env)
			if err != nil {
				continue
			}
			b.deliver(string(raw))
		default:
			return
		}
	}
}

func (b *RedisBus) relay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.outbox:
			raw, err := json.Marshal(env)
			if err != nil {
				continue
			}
			if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
				b.logger.Warn("redis publish failed, delivering locally", zap.String("key", env.Key), zap.Error(err))
				b.deliver(string(raw))
			}
		}
	}
}

func (b *RedisBus) deliver(raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Warn("malformed bus envelope", zap.Error(err))
		return
	}
	kind, _, ok := ParseKey(env.Key)
	if !ok {
		return
	}
	payload, ok := payloadFor(kind)
	if !ok {
		b.logger.Warn("unknown bus kind", zap.String("key", env.Key))
		return
	}
	if err := json.Unmarshal(env.Data, payload); err != nil {
		b.logger.Warn("decode bus payload", zap.String("key", env.Key), zap.Error(err))
		return
	}
	b.hub.Publish(env.Key, payload)
}
