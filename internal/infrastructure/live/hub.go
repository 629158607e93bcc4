package live

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Observer is a sink attached to the Hub. Deliver must not block; a returned error
// means the sink is gone and the observer is detached.
type Observer interface {
	Deliver(frame []byte) error
}

// Stats receives hub counters. Metrics implements it.
type Stats interface {
	ObserversChanged(n int)
	EventPublished()
	ObserverDropped()
}

// Hub fans every published event out to the currently attached observers.
// Delivery is best-effort and at-most-once per observer; there is no replay and no flow control.
type Hub struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
	// pmu serialises publishes so all observers see one order
	pmu   sync.Mutex
	stats Stats
}

func NewHub() *Hub {
	return &Hub{observers: make(map[Observer]struct{})}
}

// WithStats attaches counters; call before use.
func (h *Hub) WithStats(s Stats) *Hub {
	h.stats = s
	return h
}

func (h *Hub) Attach(o Observer) {
	h.mu.Lock()
	h.observers[o] = struct{}{}
	n := len(h.observers)
	h.mu.Unlock()
	if h.stats != nil {
		h.stats.ObserversChanged(n)
	}
}

// Detach is idempotent. Once it returns, o receives no further deliveries.
func (h *Hub) Detach(o Observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	delete(h.observers, o)
	n := len(h.observers)
	h.mu.Unlock()
	if c, isCloser := o.(interface{ Close() }); isCloser {
		c.Close()
	}
	if ok && h.stats != nil {
		h.stats.ObserversChanged(n)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Publish serialises v once and delivers it to every attached observer.
func (h *Hub) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("live: marshal event: %w", err)
	}
	h.pmu.Lock()
	defer h.pmu.Unlock()
	// deliver under the read lock so a concurrent Detach waits for this round
	var dead []Observer
	h.mu.RLock()
	for o := range h.observers {
		if err := o.Deliver(data); err != nil {
			dead = append(dead, o)
		}
	}
	h.mu.RUnlock()
	for _, o := range dead {
		h.Detach(o)
		if h.stats != nil {
			h.stats.ObserverDropped()
		}
	}
	if h.stats != nil {
		h.stats.EventPublished()
	}
	return nil
}
