package api

import (
	"context"

	"trailquest/internal/model"
	"trailquest/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockHikeService struct {
	mock.Mock
}

func (m *mockHikeService) StartHike(ctx context.Context, req service.StartHikeRequest) (*model.HikeSnapshot, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HikeSnapshot), args.Error(1)
}

func (m *mockHikeService) EndHike(ctx context.Context, hikeID string) error {
	args := m.Called(ctx, hikeID)
	return args.Error(0)
}

func (m *mockHikeService) PushPosition(ctx context.Context, hikeID string, pos model.Position) error {
	args := m.Called(ctx, hikeID, pos)
	return args.Error(0)
}

func (m *mockHikeService) Snapshot(ctx context.Context, hikeID string) (*model.HikeSnapshot, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HikeSnapshot), args.Error(1)
}

func (m *mockHikeService) Capture(ctx context.Context, hikeID string, req service.CaptureRequest) (*service.CaptureResult, error) {
	args := m.Called(ctx, hikeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaptureResult), args.Error(1)
}

func (m *mockHikeService) Identify(ctx context.Context, hikeID string, req service.IdentifyRequest) (*service.CaptureResult, error) {
	args := m.Called(ctx, hikeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaptureResult), args.Error(1)
}

func (m *mockHikeService) Subscribe(hikeID string) (<-chan model.Event, func(), error) {
	args := m.Called(hikeID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan model.Event), args.Get(1).(func()), args.Error(2)
}

func (m *mockHikeService) HikerID(ctx context.Context, hikeID string) (int64, error) {
	args := m.Called(ctx, hikeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockHikeService) Summary(ctx context.Context, hikeID string) (*model.HikeSummary, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HikeSummary), args.Error(1)
}

func (m *mockHikeService) ProgressSink(hikeID string) service.ProgressFunc {
	args := m.Called(hikeID)
	return args.Get(0).(service.ProgressFunc)
}

type mockUploadQueue struct {
	mock.Mock
}

func (m *mockUploadQueue) Pending(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadQueueItem), args.Error(1)
}

func (m *mockUploadQueue) List(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadQueueItem), args.Error(1)
}

func (m *mockUploadQueue) SyncHike(ctx context.Context, hikeID string, progress service.ProgressFunc) error {
	args := m.Called(ctx, hikeID, progress)
	return args.Error(0)
}

func (m *mockUploadQueue) SyncItem(ctx context.Context, itemID string, progress service.ProgressFunc) error {
	args := m.Called(ctx, itemID, progress)
	return args.Error(0)
}
