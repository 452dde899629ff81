package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trailquest/internal/metrics"
	"trailquest/internal/model"
	"trailquest/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	progressDestination = 10
	progressRead        = 30
	progressTransferred = 80
	progressDone        = 100
)

// UploadQueue moves locally captured media to remote storage, one item at a time.
type UploadQueue struct {
	store     QueueStore
	media     MediaBackend
	transport Transport
	fs        afero.Fs
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*hikeLock
}

// hikeLock serializes syncs of one hike. It is dropped once nobody holds or waits on it.
type hikeLock struct {
	mu   sync.Mutex
	refs int
}

func NewUploadQueue(store QueueStore, media MediaBackend, transport Transport, fs afero.Fs) *UploadQueue {
	return &UploadQueue{
		store:     store,
		media:     media,
		transport: transport,
		fs:        fs,
		now:       time.Now,
		locks:     make(map[string]*hikeLock),
	}
}

// Enqueue appends a pending item. Items are never reordered or removed.
func (q *UploadQueue) Enqueue(ctx context.Context, hikeID string, media model.MediaInput, metadata map[string]any) (*model.UploadQueueItem, error) {
	kind := media.Kind
	if kind == "" {
		kind = model.MediaKindPhoto
	}

	meta := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		meta[k] = v
	}
	if media.Width > 0 && media.Height > 0 {
		meta["width"] = media.Width
		meta["height"] = media.Height
	}
	if media.Duration > 0 {
		meta["duration"] = media.Duration
	}

	item := &model.UploadQueueItem{
		ID:        uuid.NewString(),
		HikeID:    hikeID,
		LocalRef:  media.LocalRef,
		Kind:      kind,
		Metadata:  meta,
		CreatedAt: q.now().UTC(),
	}

	if err := q.store.Enqueue(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue media: %w", err)
	}
	metrics.UploadsEnqueued.Inc()

	return item, nil
}

func (q *UploadQueue) List(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	items, err := q.store.ListByHike(ctx, hikeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload queue: %w", err)
	}
	return items, nil
}

func (q *UploadQueue) Pending(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	items, err := q.List(ctx, hikeID)
	if err != nil {
		return nil, err
	}

	pending := make([]model.UploadQueueItem, 0, len(items))
	for _, item := range items {
		if !item.Synced {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// SyncHike retries every item of a hike in enqueue order. Syncs of the same hike
// run one at a time, so an item is never uploaded twice by overlapping retries.
func (q *UploadQueue) SyncHike(ctx context.Context, hikeID string, progress ProgressFunc) error {
	unlock := q.lockHike(hikeID)
	defer unlock()

	items, err := q.List(ctx, hikeID)
	if err != nil {
		return err
	}
	return q.syncItems(ctx, items, progress)
}

func (q *UploadQueue) SyncItem(ctx context.Context, itemID string, progress ProgressFunc) error {
	item, err := q.store.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load upload item: %w", err)
	}

	unlock := q.lockHike(item.HikeID)
	defer unlock()

	// Another sync of the hike may have finished the item while we waited.
	item, err = q.store.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load upload item: %w", err)
	}
	return q.syncItems(ctx, []model.UploadQueueItem{*item}, progress)
}

// syncItems processes items sequentially and skips synced ones. The first failing
// item reports progress 0 and its error halts the rest of the batch. Callers hold
// the hike lock.
func (q *UploadQueue) syncItems(ctx context.Context, items []model.UploadQueueItem, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string, int) {}
	}

	for _, item := range items {
		if item.Synced {
			continue
		}

		if err := q.syncOne(ctx, item, progress); err != nil {
			progress(item.ID, 0)
			metrics.UploadsFailed.Inc()
			logger.Logger().Error("upload failed",
				zap.String("item_id", item.ID),
				zap.String("hike_id", item.HikeID),
				zap.Error(err))
			return fmt.Errorf("%w: item %s: %w", ErrUploadFailed, item.ID, err)
		}
		metrics.UploadsSynced.Inc()
	}

	return nil
}

func (q *UploadQueue) lockHike(hikeID string) func() {
	q.mu.Lock()
	l, ok := q.locks[hikeID]
	if !ok {
		l = &hikeLock{}
		q.locks[hikeID] = l
	}
	l.refs++
	q.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		q.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(q.locks, hikeID)
		}
		q.mu.Unlock()
	}
}

func (q *UploadQueue) syncOne(ctx context.Context, item model.UploadQueueItem, progress ProgressFunc) error {
	contentType := item.Kind.ContentType()

	dest, err := q.media.RequestUploadDestination(ctx, item.HikeID, contentType, string(item.Kind))
	if err != nil {
		return fmt.Errorf("failed to request upload destination: %w", err)
	}
	progress(item.ID, progressDestination)

	body, err := afero.ReadFile(q.fs, item.LocalRef)
	if err != nil {
		return fmt.Errorf("failed to read local media: %w", err)
	}
	progress(item.ID, progressRead)

	if err := q.transport.Transfer(ctx, dest.UploadURL, contentType, body); err != nil {
		return fmt.Errorf("failed to transfer media: %w", err)
	}
	progress(item.ID, progressTransferred)

	if err := q.media.RegisterUpload(ctx, dest.MediaID, int64(len(body)), item.Metadata); err != nil {
		return fmt.Errorf("failed to register upload: %w", err)
	}

	if err := q.store.MarkSynced(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to mark item synced: %w", err)
	}
	progress(item.ID, progressDone)

	return nil
}
