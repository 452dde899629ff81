package service

import (
	"context"
	"errors"
	"time"

	"trailquest/internal/model"
)

var (
	ErrPreconditionFailed    = errors.New("capture precondition failed")
	ErrCaptureFailed         = errors.New("capture failed")
	ErrUploadFailed          = errors.New("upload failed")
	ErrHintSourceUnavailable = errors.New("quest hint source unavailable")

	ErrHikeNotFound      = errors.New("hike not found")
	ErrHikeAlreadyActive = errors.New("hike already active")
	ErrNoPosition        = errors.New("no known position for hike")
	ErrUnknownDiscovery  = errors.New("discovery not in hike catalogue")
	ErrInvalidPosition   = errors.New("invalid position")
)

// HikeServiceI is the surface the HTTP layer consumes.
type HikeServiceI interface {
	StartHike(ctx context.Context, req StartHikeRequest) (*model.HikeSnapshot, error)
	EndHike(ctx context.Context, hikeID string) error
	PushPosition(ctx context.Context, hikeID string, pos model.Position) error
	Snapshot(ctx context.Context, hikeID string) (*model.HikeSnapshot, error)
	Capture(ctx context.Context, hikeID string, req CaptureRequest) (*CaptureResult, error)
	Identify(ctx context.Context, hikeID string, req IdentifyRequest) (*CaptureResult, error)
	Subscribe(hikeID string) (<-chan model.Event, func(), error)
	HikerID(ctx context.Context, hikeID string) (int64, error)
	Summary(ctx context.Context, hikeID string) (*model.HikeSummary, error)
	ProgressSink(hikeID string) ProgressFunc
}

type UploadQueueI interface {
	Pending(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error)
	List(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error)
	SyncHike(ctx context.Context, hikeID string, progress ProgressFunc) error
	SyncItem(ctx context.Context, itemID string, progress ProgressFunc) error
}

type DiscoveryCatalog interface {
	ListDiscoveriesByTrail(ctx context.Context, trailID string) ([]model.Discovery, error)
}

type CaptureBackend interface {
	SaveCapture(ctx context.Context, capture *model.CapturedDiscovery) error
	SaveIdentification(ctx context.Context, ident *model.Identification) error
	SaveBadge(ctx context.Context, badge *model.Badge) error
}

// HikeRepository keeps the durable hike record.
type HikeRepository interface {
	SaveHike(ctx context.Context, hike *model.Hike) error
	FinishHike(ctx context.Context, hikeID string, distanceMiles float64, endedAt time.Time) error
	HikeSummary(ctx context.Context, hikeID string) (*model.HikeSummary, error)
}

type QuestRepository interface {
	SaveQuestItems(ctx context.Context, items []model.QuestItem) error
	CompleteQuestItem(ctx context.Context, itemID string) error
}

type MediaBackend interface {
	RequestUploadDestination(ctx context.Context, hikeID, contentType, category string) (*model.UploadDestination, error)
	RegisterUpload(ctx context.Context, mediaID string, sizeBytes int64, metadata map[string]any) error
}

// Transport moves bytes to a pre-signed destination.
type Transport interface {
	Transfer(ctx context.Context, uploadURL, contentType string, body []byte) error
}

type HintSource interface {
	GetSpeciesHints(ctx context.Context, location model.LatLng) ([]model.SpeciesHint, error)
}

type QueueStore interface {
	Enqueue(ctx context.Context, item *model.UploadQueueItem) error
	Get(ctx context.Context, itemID string) (*model.UploadQueueItem, error)
	ListByHike(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error)
	MarkSynced(ctx context.Context, itemID string) error
}

// CompanionDevice is a paired wearable or messaging companion that can alert the hiker.
type CompanionDevice interface {
	Initialize(ctx context.Context) error
	SendAlert(ctx context.Context, hikerID int64, message string) error
	IsConnected() bool
}

// EventSink receives engine events for the UI layer.
type EventSink func(model.Event)

// ProgressFunc reports per-item upload progress in percent (0-100).
type ProgressFunc func(itemID string, percent int)
