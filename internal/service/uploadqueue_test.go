package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trailquest/internal/model"
	"trailquest/internal/repository"
	"trailquest/internal/service/mocks"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type progressRecorder struct {
	calls map[string][]int
}

func newProgressRecorder() *progressRecorder {
	return &progressRecorder{calls: make(map[string][]int)}
}

func (p *progressRecorder) record(itemID string, percent int) {
	p.calls[itemID] = append(p.calls[itemID], percent)
}

func newTestQueue(t *testing.T) (*UploadQueue, *mocks.MockQueueStore, *mocks.MockMediaBackend, *mocks.MockTransport, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/media/a.jpg", []byte("jpeg-a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/media/b.jpg", []byte("jpeg-bb"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/media/c.jpg", []byte("jpeg-ccc"), 0o644))

	store := &mocks.MockQueueStore{}
	media := &mocks.MockMediaBackend{}
	transport := &mocks.MockTransport{}

	return NewUploadQueue(store, media, transport, fs), store, media, transport, fs
}

func TestUploadQueue_Enqueue(t *testing.T) {
	queue, store, _, _, _ := newTestQueue(t)

	store.On("Enqueue", mock.Anything, mock.MatchedBy(func(item *model.UploadQueueItem) bool {
		return item.HikeID == "h1" &&
			item.Kind == model.MediaKindPhoto &&
			!item.Synced &&
			item.Metadata["width"] == 1920 &&
			item.Metadata["capture_id"] == "c1"
	})).Return(nil)

	item, err := queue.Enqueue(context.Background(), "h1",
		model.MediaInput{LocalRef: "/media/a.jpg", Width: 1920, Height: 1080},
		map[string]any{"capture_id": "c1"})

	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "/media/a.jpg", item.LocalRef)
	store.AssertExpectations(t)
}

func TestUploadQueue_EnqueueStoreError(t *testing.T) {
	queue, store, _, _, _ := newTestQueue(t)
	store.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	item, err := queue.Enqueue(context.Background(), "h1", model.MediaInput{LocalRef: "/media/a.jpg"}, nil)

	assert.Error(t, err)
	assert.Nil(t, item)
}

func TestUploadQueue_SyncSuccess(t *testing.T) {
	queue, store, media, transport, _ := newTestQueue(t)
	ctx := context.Background()

	item := model.UploadQueueItem{
		ID:       "i1",
		HikeID:   "h1",
		LocalRef: "/media/a.jpg",
		Kind:     model.MediaKindPhoto,
		Metadata: map[string]any{"capture_id": "c1"},
	}

	media.On("RequestUploadDestination", ctx, "h1", "image/jpeg", "photo").
		Return(&model.UploadDestination{UploadURL: "https://upload/a", MediaID: "m1"}, nil)
	transport.On("Transfer", ctx, "https://upload/a", "image/jpeg", []byte("jpeg-a")).Return(nil)
	media.On("RegisterUpload", ctx, "m1", int64(6), item.Metadata).Return(nil)
	store.On("MarkSynced", ctx, "i1").Return(nil)

	progress := newProgressRecorder()
	err := queue.syncItems(ctx, []model.UploadQueueItem{item}, progress.record)

	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 80, 100}, progress.calls["i1"])
	media.AssertExpectations(t)
	transport.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestUploadQueue_SyncSkipsSyncedAndHaltsOnFailure(t *testing.T) {
	queue, store, media, transport, _ := newTestQueue(t)
	ctx := context.Background()

	items := []model.UploadQueueItem{
		{ID: "a", HikeID: "h1", LocalRef: "/media/a.jpg", Kind: model.MediaKindPhoto, Synced: true},
		{ID: "b", HikeID: "h1", LocalRef: "/media/b.jpg", Kind: model.MediaKindPhoto},
		{ID: "c", HikeID: "h1", LocalRef: "/media/c.jpg", Kind: model.MediaKindPhoto},
	}

	media.On("RequestUploadDestination", ctx, "h1", "image/jpeg", "photo").
		Return(&model.UploadDestination{UploadURL: "https://upload/b", MediaID: "mb"}, nil).Once()
	transport.On("Transfer", ctx, "https://upload/b", "image/jpeg", []byte("jpeg-bb")).
		Return(errors.New("connection reset")).Once()

	progress := newProgressRecorder()
	err := queue.syncItems(ctx, items, progress.record)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUploadFailed))
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotContains(t, progress.calls, "a")
	assert.NotContains(t, progress.calls, "c")
	assert.Equal(t, []int{10, 30, 0}, progress.calls["b"])

	media.AssertNumberOfCalls(t, "RequestUploadDestination", 1)
	media.AssertNotCalled(t, "RegisterUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkSynced", mock.Anything, mock.Anything)
}

func TestUploadQueue_SyncMissingLocalFile(t *testing.T) {
	queue, _, media, transport, _ := newTestQueue(t)
	ctx := context.Background()

	media.On("RequestUploadDestination", ctx, "h1", "video/mp4", "video").
		Return(&model.UploadDestination{UploadURL: "https://upload/v", MediaID: "mv"}, nil)

	progress := newProgressRecorder()
	err := queue.syncItems(ctx, []model.UploadQueueItem{
		{ID: "v", HikeID: "h1", LocalRef: "/media/missing.mp4", Kind: model.MediaKindVideo},
	}, progress.record)

	assert.True(t, errors.Is(err, ErrUploadFailed))
	assert.Equal(t, []int{10, 0}, progress.calls["v"])
	transport.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadQueue_SyncHikeIdempotent(t *testing.T) {
	queue, store, media, transport, _ := newTestQueue(t)
	ctx := context.Background()

	pending := model.UploadQueueItem{ID: "i1", HikeID: "h1", LocalRef: "/media/a.jpg", Kind: model.MediaKindPhoto}
	synced := pending
	synced.Synced = true

	store.On("ListByHike", ctx, "h1").Return([]model.UploadQueueItem{pending}, nil).Once()
	store.On("ListByHike", ctx, "h1").Return([]model.UploadQueueItem{synced}, nil).Once()
	media.On("RequestUploadDestination", ctx, "h1", "image/jpeg", "photo").
		Return(&model.UploadDestination{UploadURL: "https://upload/a", MediaID: "m1"}, nil).Once()
	transport.On("Transfer", ctx, "https://upload/a", "image/jpeg", []byte("jpeg-a")).Return(nil).Once()
	media.On("RegisterUpload", ctx, "m1", int64(6), mock.Anything).Return(nil).Once()
	store.On("MarkSynced", ctx, "i1").Return(nil).Once()

	require.NoError(t, queue.SyncHike(ctx, "h1", nil))
	require.NoError(t, queue.SyncHike(ctx, "h1", nil))

	media.AssertNumberOfCalls(t, "RegisterUpload", 1)
	transport.AssertNumberOfCalls(t, "Transfer", 1)
	store.AssertExpectations(t)
}

func TestUploadQueue_SyncItem(t *testing.T) {
	queue, store, _, _, _ := newTestQueue(t)
	ctx := context.Background()

	store.On("Get", ctx, "missing").Return(nil, errors.New("not found"))
	store.On("Get", ctx, "done").Return(&model.UploadQueueItem{ID: "done", Synced: true}, nil)

	assert.Error(t, queue.SyncItem(ctx, "missing", nil))
	assert.NoError(t, queue.SyncItem(ctx, "done", nil))
}

func TestUploadQueue_Pending(t *testing.T) {
	queue, store, _, _, _ := newTestQueue(t)
	ctx := context.Background()

	store.On("ListByHike", ctx, "h1").Return([]model.UploadQueueItem{
		{ID: "a", Synced: true},
		{ID: "b"},
		{ID: "c"},
	}, nil)

	pending, err := queue.Pending(ctx, "h1")

	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}

// memQueueStore keeps queue rows in memory so overlapping syncs observe each other's writes.
type memQueueStore struct {
	mu    sync.Mutex
	items []model.UploadQueueItem
}

func (s *memQueueStore) Enqueue(_ context.Context, item *model.UploadQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *item)
	return nil
}

func (s *memQueueStore) Get(_ context.Context, itemID string) (*model.UploadQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == itemID {
			return &item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memQueueStore) ListByHike(_ context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UploadQueueItem
	for _, item := range s.items {
		if item.HikeID == hikeID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *memQueueStore) MarkSynced(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Synced = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func TestUploadQueue_ConcurrentSyncUploadsOnce(t *testing.T) {
	tests := []struct {
		name string
		sync func(q *UploadQueue) error
	}{
		{
			name: "Retry all twice",
			sync: func(q *UploadQueue) error { return q.SyncHike(context.Background(), "h1", nil) },
		},
		{
			name: "Retry all and retry item",
			sync: func(q *UploadQueue) error { return q.SyncItem(context.Background(), "i1", nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/media/a.jpg", []byte("jpeg-a"), 0o644))

			store := &memQueueStore{items: []model.UploadQueueItem{
				{ID: "i1", HikeID: "h1", LocalRef: "/media/a.jpg", Kind: model.MediaKindPhoto},
			}}
			media := &mocks.MockMediaBackend{}
			transport := &mocks.MockTransport{}
			queue := NewUploadQueue(store, media, transport, fs)

			media.On("RequestUploadDestination", mock.Anything, "h1", "image/jpeg", "photo").
				Return(&model.UploadDestination{UploadURL: "https://upload/a", MediaID: "m1"}, nil)
			transport.On("Transfer", mock.Anything, "https://upload/a", "image/jpeg", []byte("jpeg-a")).
				Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
				Return(nil)
			media.On("RegisterUpload", mock.Anything, "m1", int64(6), mock.Anything).Return(nil)

			var wg sync.WaitGroup
			errs := make([]error, 2)
			wg.Add(2)
			go func() {
				defer wg.Done()
				errs[0] = queue.SyncHike(context.Background(), "h1", nil)
			}()
			go func() {
				defer wg.Done()
				errs[1] = tt.sync(queue)
			}()
			wg.Wait()

			assert.NoError(t, errs[0])
			assert.NoError(t, errs[1])
			transport.AssertNumberOfCalls(t, "Transfer", 1)
			media.AssertNumberOfCalls(t, "RegisterUpload", 1)

			item, err := store.Get(context.Background(), "i1")
			require.NoError(t, err)
			assert.True(t, item.Synced)
			assert.Empty(t, queue.locks)
		})
	}
}
