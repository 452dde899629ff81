package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trailquest/internal/metrics"
	"trailquest/internal/model"
	"trailquest/internal/repository"
	"trailquest/pkg/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const DefaultCatalogTTL = 10 * time.Minute

type HikeConfig struct {
	DefaultRevealRadius float64
	BadgeDelay          time.Duration
	Quest               QuestConfig
	CatalogTTL          time.Duration
}

type HikeDeps struct {
	Catalog   DiscoveryCatalog
	Hikes     HikeRepository
	Backend   CaptureBackend
	Quests    QuestRepository
	Hints     HintSource
	Media     MediaEnqueuer
	Companion CompanionDevice
}

type StartHikeRequest struct {
	HikeID   string
	HikerID  int64
	TrailID  string
	Location model.LatLng
}

// HikeService keeps the active sessions and routes requests to them.
type HikeService struct {
	cfg     HikeConfig
	deps    HikeDeps
	hub     *EventHub
	catalog *cache.Cache

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHikeService(cfg HikeConfig, deps HikeDeps) *HikeService {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = DefaultCatalogTTL
	}
	if cfg.DefaultRevealRadius <= 0 {
		cfg.DefaultRevealRadius = DefaultRevealRadiusMeters
	}

	return &HikeService{
		cfg:      cfg,
		deps:     deps,
		hub:      NewEventHub(),
		catalog:  cache.New(cfg.CatalogTTL, 2*cfg.CatalogTTL),
		sessions: make(map[string]*Session),
	}
}

func (h *HikeService) StartHike(ctx context.Context, req StartHikeRequest) (*model.HikeSnapshot, error) {
	log := logger.Logger()

	if !req.Location.Valid() {
		return nil, fmt.Errorf("%w: start location", ErrInvalidPosition)
	}
	if req.HikeID == "" {
		req.HikeID = uuid.NewString()
	}
	if !h.reserve(req.HikeID) {
		return nil, fmt.Errorf("%w: %s", ErrHikeAlreadyActive, req.HikeID)
	}
	started := false
	defer func() {
		if !started {
			h.release(req.HikeID)
		}
	}()

	discoveries, err := h.discoveries(ctx, req.TrailID)
	if err != nil {
		return nil, err
	}

	hike := model.Hike{
		ID:        req.HikeID,
		HikerID:   req.HikerID,
		TrailID:   req.TrailID,
		StartedAt: time.Now().UTC(),
	}
	if h.deps.Hikes != nil {
		if err := h.deps.Hikes.SaveHike(ctx, &hike); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return nil, fmt.Errorf("%w: %s was already recorded", ErrHikeAlreadyActive, hike.ID)
			}
			return nil, fmt.Errorf("failed to save hike: %w", err)
		}
	}

	quest := NewQuestTracker(ctx, h.deps.Hints, req.HikeID, req.Location, h.cfg.Quest)
	if h.deps.Quests != nil {
		if err := h.deps.Quests.SaveQuestItems(ctx, quest.Items()); err != nil {
			log.Error("failed to persist quest items",
				zap.String("hike_id", req.HikeID),
				zap.Error(err))
		}
	}

	session := NewSession(hike, discoveries, quest, SessionConfig{
		DefaultRevealRadius: h.cfg.DefaultRevealRadius,
		BadgeDelay:          h.cfg.BadgeDelay,
	}, SessionDeps{
		Backend:   h.deps.Backend,
		Quests:    h.deps.Quests,
		Media:     h.deps.Media,
		Companion: h.deps.Companion,
		Sink:      h.hub.Publish,
	})

	// The start location is the first tick of the hike. It is applied before the
	// session is visible so no pushed position can precede it.
	session.ApplyPosition(model.Position{LatLng: req.Location})

	h.mu.Lock()
	h.sessions[hike.ID] = session
	h.mu.Unlock()
	started = true

	metrics.ActiveHikes.Inc()
	log.Info("hike started",
		zap.String("hike_id", hike.ID),
		zap.Int64("hiker_id", hike.HikerID),
		zap.String("trail_id", hike.TrailID),
		zap.Int("discoveries", len(discoveries)))

	return session.Snapshot(), nil
}

func (h *HikeService) EndHike(ctx context.Context, hikeID string) error {
	h.mu.Lock()
	session := h.sessions[hikeID]
	if session != nil {
		delete(h.sessions, hikeID)
	}
	h.mu.Unlock()

	if session == nil {
		return fmt.Errorf("%w: %s", ErrHikeNotFound, hikeID)
	}

	session.Close()
	h.hub.CloseHike(hikeID)
	metrics.ActiveHikes.Dec()

	snap := session.Snapshot()
	if h.deps.Hikes != nil {
		if err := h.deps.Hikes.FinishHike(ctx, hikeID, snap.DistanceMiles, time.Now().UTC()); err != nil {
			logger.Logger().Error("failed to persist hike end",
				zap.String("hike_id", hikeID),
				zap.Error(err))
		}
	}
	logger.Logger().Info("hike ended",
		zap.String("hike_id", hikeID),
		zap.Float64("distance_miles", snap.DistanceMiles),
		zap.Int("captures", snap.CaptureCount),
		zap.Int("badges", len(snap.Badges)))

	return nil
}

func (h *HikeService) PushPosition(ctx context.Context, hikeID string, pos model.Position) error {
	if !pos.Valid() {
		return ErrInvalidPosition
	}

	session, err := h.session(hikeID)
	if err != nil {
		return err
	}
	if !session.PushPosition(pos) {
		return fmt.Errorf("%w: %s", ErrHikeNotFound, hikeID)
	}
	return nil
}

func (h *HikeService) Snapshot(ctx context.Context, hikeID string) (*model.HikeSnapshot, error) {
	session, err := h.session(hikeID)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

func (h *HikeService) Capture(ctx context.Context, hikeID string, req CaptureRequest) (*CaptureResult, error) {
	session, err := h.session(hikeID)
	if err != nil {
		return nil, err
	}
	return session.Capture(ctx, req)
}

func (h *HikeService) Identify(ctx context.Context, hikeID string, req IdentifyRequest) (*CaptureResult, error) {
	session, err := h.session(hikeID)
	if err != nil {
		return nil, err
	}
	return session.Identify(ctx, req)
}

// Subscribe registers with the hub before checking the session. EndHike removes the
// session before closing the hub, so a subscription that passes the check is always
// closed when the hike ends.
func (h *HikeService) Subscribe(hikeID string) (<-chan model.Event, func(), error) {
	events, cancel := h.hub.Subscribe(hikeID)
	if _, err := h.session(hikeID); err != nil {
		cancel()
		return nil, nil, err
	}
	return events, cancel, nil
}

// HikerID resolves the owner of an active hike, falling back to the persisted
// record once the hike has ended.
func (h *HikeService) HikerID(ctx context.Context, hikeID string) (int64, error) {
	if session, err := h.session(hikeID); err == nil {
		return session.Hike().HikerID, nil
	}

	summary, err := h.Summary(ctx, hikeID)
	if err != nil {
		return 0, err
	}
	return summary.HikerID, nil
}

// Summary reads the persisted record of a hike, active or ended.
func (h *HikeService) Summary(ctx context.Context, hikeID string) (*model.HikeSummary, error) {
	if h.deps.Hikes == nil {
		return nil, fmt.Errorf("%w: %s", ErrHikeNotFound, hikeID)
	}

	summary, err := h.deps.Hikes.HikeSummary(ctx, hikeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrHikeNotFound, hikeID)
		}
		return nil, fmt.Errorf("failed to load hike summary: %w", err)
	}
	return summary, nil
}

// ProgressSink publishes upload progress of hikeID as upload.progress events.
func (h *HikeService) ProgressSink(hikeID string) ProgressFunc {
	return func(itemID string, percent int) {
		h.hub.Publish(model.Event{
			Type:   model.EventUploadProgress,
			HikeID: hikeID,
			Payload: map[string]any{
				"item_id": itemID,
				"percent": percent,
			},
			At: time.Now().UTC(),
		})
	}
}

// Close ends every active hike.
func (h *HikeService) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		if s == nil {
			continue
		}
		s.Close()
		metrics.ActiveHikes.Dec()
	}
	h.hub.Close()
}

// reserve claims hikeID for a starting hike. A reserved id has a nil session and
// is reported as not found until the start completes.
func (h *HikeService) reserve(hikeID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[hikeID]; ok {
		return false
	}
	h.sessions[hikeID] = nil
	return true
}

func (h *HikeService) release(hikeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[hikeID] == nil {
		delete(h.sessions, hikeID)
	}
}

func (h *HikeService) session(hikeID string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := h.sessions[hikeID]
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrHikeNotFound, hikeID)
	}
	return s, nil
}

func (h *HikeService) discoveries(ctx context.Context, trailID string) ([]model.Discovery, error) {
	if cached, ok := h.catalog.Get(trailID); ok {
		return cached.([]model.Discovery), nil
	}

	discoveries, err := h.deps.Catalog.ListDiscoveriesByTrail(ctx, trailID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discoveries for trail %s: %w", trailID, err)
	}
	h.catalog.SetDefault(trailID, discoveries)

	return discoveries, nil
}
