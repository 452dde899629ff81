package service

import (
	"sync"

	"trailquest/internal/model"
	"trailquest/pkg/logger"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// EventHub fans hike events out to per-hike subscribers. A subscriber that falls
// behind loses events rather than blocking the engine.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan model.Event]struct{}
	closed bool
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[string]map[chan model.Event]struct{}),
	}
}

func (h *EventHub) Publish(ev model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.HikeID] {
		select {
		case ch <- ev:
		default:
			logger.Logger().Warn("dropping event for slow subscriber",
				zap.String("hike_id", ev.HikeID),
				zap.String("type", string(ev.Type)))
		}
	}
}

// Subscribe returns a channel of events for hikeID and a cancel func that closes it.
func (h *EventHub) Subscribe(hikeID string) (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[hikeID] == nil {
		h.subs[hikeID] = make(map[chan model.Event]struct{})
	}
	h.subs[hikeID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[hikeID][ch]; !ok {
				return
			}
			delete(h.subs[hikeID], ch)
			if len(h.subs[hikeID]) == 0 {
				delete(h.subs, hikeID)
			}
			close(ch)
		})
	}

	return ch, cancel
}

// CloseHike closes every subscription of a finished hike.
func (h *EventHub) CloseHike(hikeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[hikeID] {
		close(ch)
	}
	delete(h.subs, hikeID)
}

func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for hikeID, subs := range h.subs {
		for ch := range subs {
			close(ch)
		}
		delete(h.subs, hikeID)
	}
	h.closed = true
}
