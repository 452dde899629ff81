package service

import (
	"sync"
	"testing"
	"time"

	"trailquest/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestPositionFeed_Coalesces(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	var (
		mu      sync.Mutex
		applied []float64
	)
	feed := NewPositionFeed(func(pos model.Position) {
		mu.Lock()
		applied = append(applied, pos.Lat)
		first := len(applied) == 1
		mu.Unlock()
		if first {
			<-release
		}
	})

	assert.True(t, feed.Push(model.Position{LatLng: model.LatLng{Lat: 1}}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) == 1
	}, time.Second, 5*time.Millisecond)

	// The worker is blocked on the first tick; these collapse into the last one.
	for _, lat := range []float64{2, 3, 4} {
		assert.True(t, feed.Push(model.Position{LatLng: model.LatLng{Lat: lat}}))
	}
	close(release)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) == 2
	}, time.Second, 5*time.Millisecond)

	feed.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{1, 4}, applied)
}

func TestPositionFeed_PushAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	feed := NewPositionFeed(func(model.Position) {})
	feed.Stop()
	feed.Stop()

	assert.False(t, feed.Push(model.Position{}))
}
