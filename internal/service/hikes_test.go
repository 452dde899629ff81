package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"trailquest/internal/model"
	"trailquest/internal/repository"
	"trailquest/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHikeService(t *testing.T) (*HikeService, *mocks.MockDiscoveryCatalog, *mocks.MockCaptureBackend) {
	svc, catalog, backend, _ := newTestHikeServiceWithHikes(t)
	return svc, catalog, backend
}

func newTestHikeServiceWithHikes(t *testing.T) (*HikeService, *mocks.MockDiscoveryCatalog, *mocks.MockCaptureBackend, *mocks.MockHikeRepository) {
	t.Helper()

	hikes := &mocks.MockHikeRepository{}
	hikes.On("SaveHike", mock.Anything, mock.Anything).Return(nil).Maybe()
	hikes.On("FinishHike", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	catalog := &mocks.MockDiscoveryCatalog{}
	backend := &mocks.MockCaptureBackend{}
	quests := &mocks.MockQuestRepository{}
	hints := &mocks.MockHintSource{}

	quests.On("SaveQuestItems", mock.Anything, mock.Anything).Return(nil)
	hints.On("GetSpeciesHints", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	svc := NewHikeService(HikeConfig{BadgeDelay: 10 * time.Millisecond}, HikeDeps{
		Catalog:   catalog,
		Hikes:     hikes,
		Backend:   backend,
		Quests:    quests,
		Hints:     hints,
		Companion: NopCompanion{},
	})
	t.Cleanup(svc.Close)

	return svc, catalog, backend, hikes
}

func TestHikeService_StartHike(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	ctx := context.Background()

	start := model.LatLng{Lat: 37.8, Lng: -122.45}
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{
		{ID: "d1", TrailID: "t1", Title: "Old Oak", Location: &start},
	}, nil).Once()

	tests := []struct {
		name          string
		req           StartHikeRequest
		expectedError error
	}{
		{
			name: "First hike on trail",
			req:  StartHikeRequest{HikeID: "h1", HikerID: 1, TrailID: "t1", Location: start},
		},
		{
			name: "Catalog served from cache",
			req:  StartHikeRequest{HikeID: "h2", HikerID: 2, TrailID: "t1", Location: start},
		},
		{
			name:          "Hike already active",
			req:           StartHikeRequest{HikeID: "h1", HikerID: 1, TrailID: "t1", Location: start},
			expectedError: ErrHikeAlreadyActive,
		},
		{
			name:          "Invalid start location",
			req:           StartHikeRequest{HikeID: "h3", TrailID: "t1", Location: model.LatLng{Lat: math.NaN()}},
			expectedError: ErrInvalidPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := svc.StartHike(ctx, tt.req)
			if tt.expectedError != nil {
				assert.True(t, errors.Is(err, tt.expectedError))
				assert.Nil(t, snap)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.HikeID, snap.Hike.ID)
			require.Len(t, snap.Reveals, 1)
			assert.True(t, snap.Reveals[0].IsRevealed)
			assert.True(t, snap.Quest.Fallback)
			assert.Len(t, snap.Quest.Items, DefaultQuestSize)
		})
	}

	catalog.AssertNumberOfCalls(t, "ListDiscoveriesByTrail", 1)

	hikerID, err := svc.HikerID(context.Background(), "h2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hikerID)
}

func TestHikeService_GeneratesHikeID(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)

	snap, err := svc.StartHike(context.Background(), StartHikeRequest{TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})

	require.NoError(t, err)
	assert.NotEmpty(t, snap.Hike.ID)
}

func TestHikeService_CatalogError(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "broken").Return(nil, errors.New("db down"))

	_, err := svc.StartHike(context.Background(), StartHikeRequest{HikeID: "h1", TrailID: "broken", Location: model.LatLng{Lat: 1, Lng: 1}})

	assert.Error(t, err)
	_, err = svc.Snapshot(context.Background(), "h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
}

func TestHikeService_PushPositionAndCapture(t *testing.T) {
	svc, catalog, backend := newTestHikeService(t)
	ctx := context.Background()

	start := model.LatLng{Lat: 37.8, Lng: -122.45}
	target := northOf(start, 300)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{
		{ID: "d1", Title: "Waterfall", Location: &target},
	}, nil)
	backend.On("SaveCapture", mock.Anything, mock.Anything).Return(nil)
	backend.On("SaveBadge", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.StartHike(ctx, StartHikeRequest{HikeID: "h1", HikerID: 7, TrailID: "t1", Location: start})
	require.NoError(t, err)

	events, cancel, err := svc.Subscribe("h1")
	require.NoError(t, err)
	defer cancel()

	_, err = svc.Capture(ctx, "h1", CaptureRequest{DiscoveryID: "d1"})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	assert.True(t, errors.Is(svc.PushPosition(ctx, "h1", model.Position{LatLng: model.LatLng{Lat: math.NaN()}}), ErrInvalidPosition))
	require.NoError(t, svc.PushPosition(ctx, "h1", model.Position{LatLng: target}))

	select {
	case ev := <-events:
		assert.Equal(t, model.EventDiscoveryRevealed, ev.Type)
		assert.Equal(t, "d1", ev.Payload["discovery_id"])
	case <-time.After(time.Second):
		t.Fatal("no reveal event")
	}

	result, err := svc.Capture(ctx, "h1", CaptureRequest{DiscoveryID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, model.BadgeFirstCapture, result.Badge.Type)

	snap, err := svc.Snapshot(ctx, "h1")
	require.NoError(t, err)
	assert.InDelta(t, 300.0/1609.344, snap.DistanceMiles, 0.01)
}

func TestHikeService_EndHike(t *testing.T) {
	svc, catalog, _, hikes := newTestHikeServiceWithHikes(t)
	ctx := context.Background()
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)

	_, err := svc.StartHike(ctx, StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	events, _, err := svc.Subscribe("h1")
	require.NoError(t, err)

	require.NoError(t, svc.EndHike(ctx, "h1"))
	hikes.AssertCalled(t, "FinishHike", mock.Anything, "h1", mock.Anything, mock.Anything)

	_, ok := <-events
	assert.False(t, ok)
	assert.True(t, errors.Is(svc.EndHike(ctx, "h1"), ErrHikeNotFound))
	assert.True(t, errors.Is(svc.PushPosition(ctx, "h1", model.Position{LatLng: model.LatLng{Lat: 1, Lng: 1}}), ErrHikeNotFound))
	_, _, err = svc.Subscribe("h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
}

func TestHikeService_SaveHikeFailure(t *testing.T) {
	svc, catalog, _, hikes := newTestHikeServiceWithHikes(t)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)
	hikes.ExpectedCalls = nil
	hikes.On("SaveHike", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.StartHike(context.Background(), StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})

	assert.Error(t, err)
	hikes.On("HikeSummary", mock.Anything, "h1").Return(nil, repository.ErrNotFound)
	_, err = svc.HikerID(context.Background(), "h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
}

func TestHikeService_Summary(t *testing.T) {
	svc, _, _, hikes := newTestHikeServiceWithHikes(t)
	ctx := context.Background()

	hikes.On("HikeSummary", ctx, "h1").Return(&model.HikeSummary{HikeID: "h1", HikerID: 9, CaptureCount: 2}, nil)
	hikes.On("HikeSummary", ctx, "missing").Return(nil, repository.ErrNotFound)
	hikes.On("HikeSummary", ctx, "broken").Return(nil, errors.New("db down"))

	tests := []struct {
		name          string
		hikeID        string
		expectedError error
	}{
		{name: "Persisted hike", hikeID: "h1"},
		{name: "Unknown hike", hikeID: "missing", expectedError: ErrHikeNotFound},
		{name: "Repository failure", hikeID: "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := svc.Summary(ctx, tt.hikeID)
			switch {
			case tt.expectedError != nil:
				assert.True(t, errors.Is(err, tt.expectedError))
			case tt.hikeID == "broken":
				assert.Error(t, err)
				assert.False(t, errors.Is(err, ErrHikeNotFound))
			default:
				require.NoError(t, err)
				assert.Equal(t, 2, summary.CaptureCount)
			}
		})
	}
}

func TestHikeService_ProgressSink(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)

	_, err := svc.StartHike(context.Background(), StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)
	events, cancel, err := svc.Subscribe("h1")
	require.NoError(t, err)
	defer cancel()

	svc.ProgressSink("h1")("item-1", 80)

	ev := <-events
	assert.Equal(t, model.EventUploadProgress, ev.Type)
	assert.Equal(t, "item-1", ev.Payload["item_id"])
	assert.Equal(t, 80, ev.Payload["percent"])
}

func TestHikeService_StartHikeRecordedID(t *testing.T) {
	svc, catalog, _, hikes := newTestHikeServiceWithHikes(t)
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)
	hikes.ExpectedCalls = nil
	hikes.On("SaveHike", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)

	snap, err := svc.StartHike(context.Background(), StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})

	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, ErrHikeAlreadyActive))
	_, err = svc.Snapshot(context.Background(), "h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
}

func TestHikeService_StartingHikeIsNotVisible(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	ctx := context.Background()

	start := model.LatLng{Lat: 37.8, Lng: -122.45}
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	hints := &mocks.MockHintSource{}
	hints.On("GetSpeciesHints", mock.Anything, start).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil, errors.New("offline")).Once()
	svc.deps.Hints = hints

	done := make(chan error, 1)
	go func() {
		_, err := svc.StartHike(ctx, StartHikeRequest{HikeID: "h1", HikerID: 3, TrailID: "t1", Location: start})
		done <- err
	}()
	<-entered

	later := northOf(start, 100)
	assert.True(t, errors.Is(svc.PushPosition(ctx, "h1", model.Position{LatLng: later}), ErrHikeNotFound))
	assert.True(t, errors.Is(svc.EndHike(ctx, "h1"), ErrHikeNotFound))
	_, _, err := svc.Subscribe("h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
	_, err = svc.StartHike(ctx, StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: start})
	assert.True(t, errors.Is(err, ErrHikeAlreadyActive))

	close(release)
	require.NoError(t, <-done)

	snap, err := svc.Snapshot(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, snap.Position)
	assert.Equal(t, start, snap.Position.LatLng)

	svc.hub.mu.RLock()
	assert.Empty(t, svc.hub.subs)
	svc.hub.mu.RUnlock()
}

func TestHikeService_SubscribeClosedWithHike(t *testing.T) {
	svc, catalog, _ := newTestHikeService(t)
	ctx := context.Background()
	catalog.On("ListDiscoveriesByTrail", mock.Anything, "t1").Return([]model.Discovery{}, nil)

	_, err := svc.StartHike(ctx, StartHikeRequest{HikeID: "h1", TrailID: "t1", Location: model.LatLng{Lat: 1, Lng: 1}})
	require.NoError(t, err)

	subs := make([]<-chan model.Event, 0, 5)
	for i := 0; i < 5; i++ {
		events, _, err := svc.Subscribe("h1")
		require.NoError(t, err)
		subs = append(subs, events)
	}
	require.NoError(t, svc.EndHike(ctx, "h1"))

	for _, events := range subs {
		select {
		case _, ok := <-events:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("subscription left open after hike ended")
		}
	}

	_, _, err = svc.Subscribe("h1")
	assert.True(t, errors.Is(err, ErrHikeNotFound))
	svc.hub.mu.RLock()
	assert.Empty(t, svc.hub.subs)
	svc.hub.mu.RUnlock()
}
