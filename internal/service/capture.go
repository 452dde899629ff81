package service

import (
	"context"
	"fmt"
	"strings"

	"trailquest/internal/metrics"
	"trailquest/internal/model"
	"trailquest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IdentificationInput struct {
	Name     string
	Category string
	Rarity   model.Rarity
}

type CaptureRequest struct {
	DiscoveryID    string
	Photo          *model.MediaInput
	Note           string
	Identification *IdentificationInput
}

type IdentifyRequest struct {
	IdentificationInput
	Photo *model.MediaInput
}

type CaptureResult struct {
	Capture        *model.CapturedDiscovery
	Identification *model.Identification
	// Badge is the primary badge of this event; further badges arrive as delayed events.
	Badge          *model.Badge
	QuestCompleted *model.QuestItem
	QueueItem      *model.UploadQueueItem
}

// rewardOutcome is what the evaluator pipeline decided for one event.
type rewardOutcome struct {
	quest        *model.QuestItem
	allCompleted bool
	badges       []model.Badge
}

// Capture turns a revealed discovery into a durable CapturedDiscovery. Nothing local
// changes unless the backend accepted the capture.
func (s *Session) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	pos, discovery, err := s.checkCapture(req.DiscoveryID)
	if err != nil {
		metrics.Captures.WithLabelValues(string(model.CaptureSourceManual), metrics.OutcomePrecondition).Inc()
		return nil, err
	}

	capture := &model.CapturedDiscovery{
		ID:          uuid.NewString(),
		HikeID:      s.hike.ID,
		DiscoveryID: req.DiscoveryID,
		Location:    pos.LatLng,
		CapturedAt:  s.now().UTC(),
	}
	if req.Photo != nil && req.Photo.LocalRef != "" {
		ref := req.Photo.LocalRef
		capture.PhotoRef = &ref
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		capture.Note = &note
	}

	if err := s.deps.Backend.SaveCapture(ctx, capture); err != nil {
		metrics.Captures.WithLabelValues(string(model.CaptureSourceManual), metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	metrics.Captures.WithLabelValues(string(model.CaptureSourceManual), metrics.OutcomeSuccess).Inc()

	s.mu.Lock()
	s.reveal.MarkCaptured(req.DiscoveryID)
	s.captures = append(s.captures, *capture)
	prev := s.tally
	s.tally.Captures++
	s.publishLocked()
	s.mu.Unlock()

	result := &CaptureResult{Capture: capture}
	if capture.PhotoRef != nil {
		result.QueueItem = s.enqueuePhoto(ctx, *req.Photo, map[string]any{
			"capture_id":   capture.ID,
			"discovery_id": capture.DiscoveryID,
			"captured_at":  capture.CapturedAt,
			"lat":          capture.Location.Lat,
			"lng":          capture.Location.Lng,
		})
	}

	// Without an identification the catalogue entry itself is matched against quest targets.
	identified, rarity := discovery.Title, discovery.Rarity
	if req.Identification != nil {
		identified = req.Identification.Name
		rarity = req.Identification.Rarity
	}
	outcome := s.applyRewards(prev, identified, rarity)

	s.emit(model.EventDiscoveryCaptured, map[string]any{
		"capture_id":   capture.ID,
		"discovery_id": capture.DiscoveryID,
	})
	s.finishRewards(ctx, outcome, result)

	return result, nil
}

// Identify records a camera-based identification. It feeds the camera-sourced
// tally, the quest checklist and the rarity rules.
func (s *Session) Identify(ctx context.Context, req IdentifyRequest) (*CaptureResult, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	pos, err := s.checkIdentify(req.Name)
	if err != nil {
		metrics.Captures.WithLabelValues(string(model.CaptureSourceCamera), metrics.OutcomePrecondition).Inc()
		return nil, err
	}

	rarity := req.Rarity
	if rarity == "" {
		rarity = model.RarityCommon
	}
	ident := &model.Identification{
		ID:           uuid.NewString(),
		HikeID:       s.hike.ID,
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Rarity:       rarity,
		Location:     pos.LatLng,
		IdentifiedAt: s.now().UTC(),
	}
	if req.Photo != nil && req.Photo.LocalRef != "" {
		ref := req.Photo.LocalRef
		ident.PhotoRef = &ref
	}

	if err := s.deps.Backend.SaveIdentification(ctx, ident); err != nil {
		metrics.Captures.WithLabelValues(string(model.CaptureSourceCamera), metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	metrics.Captures.WithLabelValues(string(model.CaptureSourceCamera), metrics.OutcomeSuccess).Inc()

	s.mu.Lock()
	s.idents = append(s.idents, *ident)
	prev := s.tally
	s.tally.CameraCaptures++
	s.publishLocked()
	s.mu.Unlock()

	result := &CaptureResult{Identification: ident}
	if ident.PhotoRef != nil {
		result.QueueItem = s.enqueuePhoto(ctx, *req.Photo, map[string]any{
			"identification_id": ident.ID,
			"name":              ident.Name,
			"captured_at":       ident.IdentifiedAt,
			"lat":               ident.Location.Lat,
			"lng":               ident.Location.Lng,
		})
	}

	outcome := s.applyRewards(prev, ident.Name, ident.Rarity)
	s.finishRewards(ctx, outcome, result)

	return result, nil
}

func (s *Session) checkCapture(discoveryID string) (model.Position, model.Discovery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActiveLocked(); err != nil {
		return model.Position{}, model.Discovery{}, err
	}

	state, ok := s.reveal.State(discoveryID)
	if !ok {
		return model.Position{}, model.Discovery{}, fmt.Errorf("%w: %w: %s", ErrPreconditionFailed, ErrUnknownDiscovery, discoveryID)
	}
	if !state.IsRevealed {
		return model.Position{}, model.Discovery{}, fmt.Errorf("%w: discovery %s is not revealed", ErrPreconditionFailed, discoveryID)
	}
	if state.IsCaptured {
		return model.Position{}, model.Discovery{}, fmt.Errorf("%w: discovery %s already captured", ErrPreconditionFailed, discoveryID)
	}

	discovery, _ := s.reveal.Discovery(discoveryID)
	return *s.position, discovery, nil
}

func (s *Session) checkIdentify(name string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActiveLocked(); err != nil {
		return model.Position{}, err
	}
	if strings.TrimSpace(name) == "" {
		return model.Position{}, fmt.Errorf("%w: identification name is required", ErrPreconditionFailed)
	}

	return *s.position, nil
}

func (s *Session) checkActiveLocked() error {
	select {
	case <-s.closed:
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, ErrHikeNotFound)
	default:
	}
	if s.hike.ID == "" {
		return fmt.Errorf("%w: hike has no id", ErrPreconditionFailed)
	}
	if s.position == nil {
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, ErrNoPosition)
	}
	return nil
}

// enqueuePhoto never fails the transaction; the capture is already durable.
func (s *Session) enqueuePhoto(ctx context.Context, photo model.MediaInput, metadata map[string]any) *model.UploadQueueItem {
	if s.deps.Media == nil {
		return nil
	}

	item, err := s.deps.Media.Enqueue(ctx, s.hike.ID, photo, metadata)
	if err != nil {
		logger.Logger().Error("failed to enqueue captured photo",
			zap.String("hike_id", s.hike.ID),
			zap.String("local_ref", photo.LocalRef),
			zap.Error(err))
		return nil
	}
	return item
}

// applyRewards runs the quest and badge evaluators against the post-event state and
// applies their decisions in one critical section.
func (s *Session) applyRewards(prev Tally, identifiedName string, rarity model.Rarity) rewardOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome rewardOutcome

	if s.quest != nil && identifiedName != "" {
		wasComplete := s.quest.AllCompleted()
		if item, ok := s.quest.Complete(identifiedName); ok {
			outcome.quest = &item
			outcome.allCompleted = !wasComplete && s.quest.AllCompleted()
		}
	}

	var questItems []model.QuestItem
	if s.quest != nil {
		questItems = s.quest.Items()
	}

	outcome.badges = EvaluateBadges(BadgeInput{
		HikeID: s.hike.ID,
		Prev:   prev,
		Next:   s.tally,
		Rarity: rarity,
		Quest:  questItems,
		Earned: s.earned,
	}, s.now())

	for _, b := range outcome.badges {
		s.earned[b.Type] = true
	}
	s.badges = append(s.badges, outcome.badges...)
	s.publishLocked()

	return outcome
}

// finishRewards persists and announces what applyRewards decided.
func (s *Session) finishRewards(ctx context.Context, outcome rewardOutcome, result *CaptureResult) {
	log := logger.Logger()

	if outcome.quest != nil {
		metrics.QuestItemsCompleted.Inc()
		result.QuestCompleted = outcome.quest
		if s.deps.Quests != nil {
			if err := s.deps.Quests.CompleteQuestItem(ctx, outcome.quest.ID); err != nil {
				log.Error("failed to persist quest completion",
					zap.String("hike_id", s.hike.ID),
					zap.String("quest_item_id", outcome.quest.ID),
					zap.Error(err))
			}
		}
		s.emit(model.EventQuestCompleted, map[string]any{
			"quest_item_id": outcome.quest.ID,
			"name":          outcome.quest.Name,
			"xp":            outcome.quest.XP,
		})
	}
	if outcome.allCompleted {
		snap := s.Snapshot()
		s.emit(model.EventQuestAllCompleted, map[string]any{
			"earned_xp": snap.Quest.EarnedXP,
			"total_xp":  snap.Quest.TotalXP,
		})
	}

	for i := range outcome.badges {
		if err := s.deps.Backend.SaveBadge(ctx, &outcome.badges[i]); err != nil {
			log.Error("failed to persist badge",
				zap.String("hike_id", s.hike.ID),
				zap.String("badge_type", string(outcome.badges[i].Type)),
				zap.Error(err))
		}
	}

	primary, rest := splitPrimaryBadge(outcome.badges)
	if primary != nil {
		result.Badge = primary
		s.emitBadge(*primary)
	}
	s.deliverLater(rest)
}

// splitPrimaryBadge picks the first non-delayed badge as the synchronous one.
func splitPrimaryBadge(badges []model.Badge) (*model.Badge, []model.Badge) {
	if len(badges) == 0 {
		return nil, nil
	}

	idx := 0
	for i, b := range badges {
		if !b.Delayed {
			idx = i
			break
		}
	}

	primary := badges[idx]
	rest := make([]model.Badge, 0, len(badges)-1)
	rest = append(rest, badges[:idx]...)
	rest = append(rest, badges[idx+1:]...)
	return &primary, rest
}
