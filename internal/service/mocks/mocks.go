package mocks

import (
	"context"
	"time"

	"trailquest/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDiscoveryCatalog struct {
	mock.Mock
}

func (m *MockDiscoveryCatalog) ListDiscoveriesByTrail(ctx context.Context, trailID string) ([]model.Discovery, error) {
	args := m.Called(ctx, trailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Discovery), args.Error(1)
}

type MockCaptureBackend struct {
	mock.Mock
}

func (m *MockCaptureBackend) SaveCapture(ctx context.Context, capture *model.CapturedDiscovery) error {
	args := m.Called(ctx, capture)
	return args.Error(0)
}

func (m *MockCaptureBackend) SaveIdentification(ctx context.Context, ident *model.Identification) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *MockCaptureBackend) SaveBadge(ctx context.Context, badge *model.Badge) error {
	args := m.Called(ctx, badge)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) SaveQuestItems(ctx context.Context, items []model.QuestItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockQuestRepository) CompleteQuestItem(ctx context.Context, itemID string) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

type MockMediaBackend struct {
	mock.Mock
}

func (m *MockMediaBackend) RequestUploadDestination(ctx context.Context, hikeID, contentType, category string) (*model.UploadDestination, error) {
	args := m.Called(ctx, hikeID, contentType, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadDestination), args.Error(1)
}

func (m *MockMediaBackend) RegisterUpload(ctx context.Context, mediaID string, sizeBytes int64, metadata map[string]any) error {
	args := m.Called(ctx, mediaID, sizeBytes, metadata)
	return args.Error(0)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Transfer(ctx context.Context, uploadURL, contentType string, body []byte) error {
	args := m.Called(ctx, uploadURL, contentType, body)
	return args.Error(0)
}

type MockHintSource struct {
	mock.Mock
}

func (m *MockHintSource) GetSpeciesHints(ctx context.Context, location model.LatLng) ([]model.SpeciesHint, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SpeciesHint), args.Error(1)
}

type MockMediaEnqueuer struct {
	mock.Mock
}

func (m *MockMediaEnqueuer) Enqueue(ctx context.Context, hikeID string, media model.MediaInput, metadata map[string]any) (*model.UploadQueueItem, error) {
	args := m.Called(ctx, hikeID, media, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadQueueItem), args.Error(1)
}

type MockCompanionDevice struct {
	mock.Mock
}

func (m *MockCompanionDevice) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCompanionDevice) SendAlert(ctx context.Context, hikerID int64, message string) error {
	args := m.Called(ctx, hikerID, message)
	return args.Error(0)
}

func (m *MockCompanionDevice) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockQueueStore struct {
	mock.Mock
}

func (m *MockQueueStore) Enqueue(ctx context.Context, item *model.UploadQueueItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockQueueStore) Get(ctx context.Context, itemID string) (*model.UploadQueueItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadQueueItem), args.Error(1)
}

func (m *MockQueueStore) ListByHike(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadQueueItem), args.Error(1)
}

func (m *MockQueueStore) MarkSynced(ctx context.Context, itemID string) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

type MockHikeRepository struct {
	mock.Mock
}

func (m *MockHikeRepository) SaveHike(ctx context.Context, hike *model.Hike) error {
	args := m.Called(ctx, hike)
	return args.Error(0)
}

func (m *MockHikeRepository) FinishHike(ctx context.Context, hikeID string, distanceMiles float64, endedAt time.Time) error {
	args := m.Called(ctx, hikeID, distanceMiles, endedAt)
	return args.Error(0)
}

func (m *MockHikeRepository) HikeSummary(ctx context.Context, hikeID string) (*model.HikeSummary, error) {
	args := m.Called(ctx, hikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HikeSummary), args.Error(1)
}
