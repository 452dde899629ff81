package service

import (
	"sync"

	"trailquest/internal/metrics"
	"trailquest/internal/model"
)

// PositionFeed hands positions to a single worker. A position that has not been
// picked up yet is replaced by a newer one, so a slow tick never builds a backlog.
type PositionFeed struct {
	apply func(model.Position)

	mu      sync.Mutex
	pending *model.Position

	signal   chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewPositionFeed(apply func(model.Position)) *PositionFeed {
	f := &PositionFeed{
		apply:   apply,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go f.run()
	return f
}

// Push queues pos for the worker and reports false once the feed is stopped.
func (f *PositionFeed) Push(pos model.Position) bool {
	select {
	case <-f.done:
		return false
	default:
	}

	f.mu.Lock()
	if f.pending != nil {
		metrics.PositionsCoalesced.Inc()
	}
	f.pending = &pos
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
	return true
}

func (f *PositionFeed) run() {
	defer close(f.stopped)

	for {
		select {
		case <-f.done:
			return
		case <-f.signal:
			f.mu.Lock()
			pos := f.pending
			f.pending = nil
			f.mu.Unlock()

			if pos != nil {
				f.apply(*pos)
			}
		}
	}
}

// Stop waits for an in-progress tick to finish. Positions still pending are dropped.
func (f *PositionFeed) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
	})
	<-f.stopped
}
