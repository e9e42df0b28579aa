// Package realtime is the keyed fan-out bus behind GraphQL subscriptions
// and the /api/ws socket.
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/observability"
)

// Publisher delivers a payload to every current subscriber of key.
// Publish never blocks on a slow subscriber.
type Publisher interface {
	Publish(key string, payload interface{})
}

// Subscriber opens a stream for key. The channel is closed when ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, key string) <-chan interface{}
}

type Bus interface {
	Publisher
	Subscriber
}

const defaultBuffer = 64

type subscription struct {
	ch chan interface{}
}

// Hub is the in-process Bus. Each subscription has its own buffered
// channel; when it is full the event is dropped for that subscriber only.
type Hub struct {
	subs   map[string]map[*subscription]struct{}
	buffer int
	mutex  sync.RWMutex
	logger *zap.Logger
}

func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Publish(key string, payload interface{}) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	kind := kindLabel(key)
	for sub := range h.subs[key] {
		select {
		case sub.ch <- payload:
			observability.BusPublished.WithLabelValues(kind).Inc()
		default:
			observability.BusDropped.WithLabelValues(kind).Inc()
			h.logger.Warn("dropping event for slow subscriber", zap.String("key", key))
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context, key string) <-chan interface{} {
	sub := &subscription{ch: make(chan interface{}, h.buffer)}

	h.mutex.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[key] = set
	}
	set[sub] = struct{}{}
	h.mutex.Unlock()
	observability.BusSubscribers.Inc()

	go func() {
		<-ctx.Done()
		h.remove(key, sub)
	}()
	return sub.ch
}

// remove closes the channel under the write lock so no Publish can be
// sending on it at the same time.
func (h *Hub) remove(key string, sub *subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set := h.subs[key]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, key)
	}
	close(sub.ch)
	observability.BusSubscribers.Dec()
}

// Subscribers returns the number of open subscriptions on key.
func (h *Hub) Subscribers(key string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subs[key])
}
