package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trailquest/internal/metrics"
	"trailquest/internal/model"
	"trailquest/pkg/geo"
	"trailquest/pkg/logger"

	"go.uber.org/zap"
)

const DefaultBadgeDelay = 2500 * time.Millisecond

// MediaEnqueuer is the part of the upload queue a session needs.
type MediaEnqueuer interface {
	Enqueue(ctx context.Context, hikeID string, media model.MediaInput, metadata map[string]any) (*model.UploadQueueItem, error)
}

type SessionConfig struct {
	DefaultRevealRadius float64
	BadgeDelay          time.Duration
}

type SessionDeps struct {
	Backend   CaptureBackend
	Quests    QuestRepository
	Media     MediaEnqueuer
	Companion CompanionDevice
	Sink      EventSink
}

// Session owns every piece of mutable state of one active hike. Writers hold mu
// briefly and never across network calls; readers use Snapshot, which never blocks.
type Session struct {
	hike model.Hike
	cfg  SessionConfig
	deps SessionDeps

	mu            sync.Mutex
	reveal        *RevealEngine
	quest         *QuestTracker
	position      *model.Position
	distanceMiles float64
	captures      []model.CapturedDiscovery
	idents        []model.Identification
	badges        []model.Badge
	earned        map[model.BadgeType]bool
	tally         Tally

	// captureMu serializes capture transactions of this hike.
	captureMu sync.Mutex

	snapshot atomic.Pointer[model.HikeSnapshot]
	feed     *PositionFeed

	delayed   sync.WaitGroup
	closed    chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

func NewSession(hike model.Hike, discoveries []model.Discovery, quest *QuestTracker, cfg SessionConfig, deps SessionDeps) *Session {
	if cfg.BadgeDelay < 0 {
		cfg.BadgeDelay = DefaultBadgeDelay
	}

	s := &Session{
		hike:   hike,
		cfg:    cfg,
		deps:   deps,
		reveal: NewRevealEngine(discoveries, cfg.DefaultRevealRadius),
		quest:  quest,
		earned: make(map[model.BadgeType]bool),
		closed: make(chan struct{}),
		now:    time.Now,
	}

	s.mu.Lock()
	s.publishLocked()
	s.mu.Unlock()

	s.feed = NewPositionFeed(s.ApplyPosition)
	return s
}

func (s *Session) Hike() model.Hike {
	return s.hike
}

// PushPosition hands pos to the coalescing feed.
func (s *Session) PushPosition(pos model.Position) bool {
	return s.feed.Push(pos)
}

// ApplyPosition runs one reveal tick synchronously.
func (s *Session) ApplyPosition(pos model.Position) {
	if pos.RecordedAt.IsZero() {
		pos.RecordedAt = s.now().UTC()
	}

	s.mu.Lock()
	if s.position != nil && s.position.Valid() && pos.Valid() {
		s.distanceMiles += geo.DistanceMiles(s.position.LatLng, pos.LatLng)
	}
	p := pos
	s.position = &p

	_, newlyRevealed := s.reveal.Update(pos.LatLng)
	s.publishLocked()
	s.mu.Unlock()

	metrics.PositionsProcessed.Inc()

	for _, d := range newlyRevealed {
		metrics.DiscoveriesRevealed.Inc()
		s.emit(model.EventDiscoveryRevealed, map[string]any{
			"discovery_id": d.ID,
			"title":        d.Title,
			"type":         d.Type,
		})
		s.alert(fmt.Sprintf("Discovery nearby: %s", d.Title))
	}
}

// Snapshot returns the latest published state.
func (s *Session) Snapshot() *model.HikeSnapshot {
	return s.snapshot.Load()
}

// Close stops the position feed and waits for pending badge deliveries to be dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.feed.Stop()
	s.delayed.Wait()
}

func (s *Session) publishLocked() {
	snap := &model.HikeSnapshot{
		Hike:            s.hike,
		DistanceMiles:   s.distanceMiles,
		Reveals:         s.reveal.Snapshot(),
		Captures:        append([]model.CapturedDiscovery(nil), s.captures...),
		Identifications: append([]model.Identification(nil), s.idents...),
		Badges:          append([]model.Badge(nil), s.badges...),
		CaptureCount:    s.tally.Captures,
		CameraCount:     s.tally.CameraCaptures,
		UpdatedAt:       s.now().UTC(),
	}
	if s.position != nil {
		p := *s.position
		snap.Position = &p
	}
	if s.quest != nil {
		snap.Quest = s.quest.State()
	}
	s.snapshot.Store(snap)
}

func (s *Session) emit(eventType model.EventType, payload map[string]any) {
	if s.deps.Sink == nil {
		return
	}
	s.deps.Sink(model.Event{
		Type:    eventType,
		HikeID:  s.hike.ID,
		Payload: payload,
		At:      s.now().UTC(),
	})
}

func (s *Session) alert(message string) {
	c := s.deps.Companion
	if c == nil || !c.IsConnected() {
		return
	}
	if err := c.SendAlert(context.Background(), s.hike.HikerID, message); err != nil {
		logger.Logger().Warn("companion alert failed",
			zap.String("hike_id", s.hike.ID),
			zap.Error(err))
	}
}

func (s *Session) emitBadge(b model.Badge) {
	metrics.BadgesAwarded.WithLabelValues(string(b.Type)).Inc()
	s.emit(model.EventBadgeEarned, map[string]any{
		"badge_id": b.ID,
		"type":     string(b.Type),
		"name":     b.Name,
		"icon":     b.Icon,
		"xp":       b.XP,
	})
	s.alert(fmt.Sprintf("Badge earned: %s (+%d XP)", b.Name, b.XP))
}

// deliverLater presents badges one after another, BadgeDelay apart.
func (s *Session) deliverLater(badges []model.Badge) {
	if len(badges) == 0 {
		return
	}

	s.delayed.Add(1)
	go func() {
		defer s.delayed.Done()

		for _, b := range badges {
			timer := time.NewTimer(s.cfg.BadgeDelay)
			select {
			case <-s.closed:
				timer.Stop()
				return
			case <-timer.C:
			}
			s.emitBadge(b)
		}
	}()
}
