package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trailquest/internal/model"
	"trailquest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultQuestSize       = 5
	DefaultCompletionBonus = 50
)

var RarityXP = map[model.Rarity]int{
	model.RarityCommon:    20,
	model.RarityUncommon:  30,
	model.RarityRare:      45,
	model.RarityLegendary: 65,
}

var FallbackQuestHints = []model.SpeciesHint{
	{Name: "Oak Tree", Category: "plant", Hint: "Look for lobed leaves and acorns near the trail edge", Rarity: model.RarityCommon, XP: 20},
	{Name: "Wildflower", Category: "plant", Hint: "Bright blooms in sunny clearings", Rarity: model.RarityCommon, XP: 25},
	{Name: "Squirrel", Category: "mammal", Hint: "Listen for chatter in the canopy", Rarity: model.RarityUncommon, XP: 30},
	{Name: "Hawk", Category: "bird", Hint: "Scan the sky above open ridges", Rarity: model.RarityRare, XP: 45},
	{Name: "Owl", Category: "bird", Hint: "Check hollow trees at dusk", Rarity: model.RarityLegendary, XP: 65},
}

type QuestConfig struct {
	Size            int
	CompletionBonus int
}

// QuestTracker owns one hike's find-target checklist and XP ledger.
// Not safe for concurrent use; the owning Session serializes access.
type QuestTracker struct {
	items    []model.QuestItem
	bonus    int
	totalXP  int
	fallback bool
	now      func() time.Time
}

// NewQuestTracker asks hints for location-aware targets and falls back to
// FallbackQuestHints when the source fails or returns nothing.
func NewQuestTracker(ctx context.Context, hints HintSource, hikeID string, location model.LatLng, cfg QuestConfig) *QuestTracker {
	log := logger.Logger()

	if cfg.Size <= 0 {
		cfg.Size = DefaultQuestSize
	}
	if cfg.CompletionBonus <= 0 {
		cfg.CompletionBonus = DefaultCompletionBonus
	}

	var (
		source   []model.SpeciesHint
		err      error
		fallback bool
	)
	if hints != nil {
		source, err = hints.GetSpeciesHints(ctx, location)
	} else {
		err = fmt.Errorf("no hint source configured")
	}
	if err != nil || len(source) == 0 {
		if err == nil {
			err = fmt.Errorf("empty hint list")
		}
		log.Warn("using fallback quest list",
			zap.String("hike_id", hikeID),
			zap.Error(fmt.Errorf("%w: %w", ErrHintSourceUnavailable, err)))
		source = FallbackQuestHints
		fallback = true
	}

	if len(source) > cfg.Size {
		source = source[:cfg.Size]
	}

	return NewQuestTrackerFromHints(hikeID, source, cfg.CompletionBonus, fallback)
}

func NewQuestTrackerFromHints(hikeID string, hints []model.SpeciesHint, bonus int, fallback bool) *QuestTracker {
	items := make([]model.QuestItem, 0, len(hints))
	total := bonus
	for _, h := range hints {
		xp := h.XP
		if xp <= 0 {
			xp = RarityXP[h.Rarity]
		}
		if xp <= 0 {
			xp = RarityXP[model.RarityCommon]
		}
		rarity := h.Rarity
		if rarity == "" {
			rarity = model.RarityCommon
		}

		items = append(items, model.QuestItem{
			ID:       uuid.NewString(),
			HikeID:   hikeID,
			Name:     h.Name,
			Category: h.Category,
			Hint:     h.Hint,
			XP:       xp,
			Rarity:   rarity,
		})
		total += xp
	}

	return &QuestTracker{
		items:    items,
		bonus:    bonus,
		totalXP:  total,
		fallback: fallback,
		now:      time.Now,
	}
}

// Complete marks the first incomplete item whose name contains the leading token of
// identifiedName (case-insensitive). At most one item is completed per call.
//
// TODO: match on a canonical species id once the hint source returns one; name
// overlap lets "Red Fox" complete a "Red-tailed Hawk" item.
func (q *QuestTracker) Complete(identifiedName string) (model.QuestItem, bool) {
	token := leadingToken(identifiedName)
	if token == "" {
		return model.QuestItem{}, false
	}

	for i := range q.items {
		item := &q.items[i]
		if item.Completed {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Name), token) {
			continue
		}

		completedAt := q.now().UTC()
		item.Completed = true
		item.CompletedAt = &completedAt
		return *item, true
	}

	return model.QuestItem{}, false
}

func (q *QuestTracker) AllCompleted() bool {
	return questAllCompleted(q.items)
}

// TotalXP is fixed at construction.
func (q *QuestTracker) TotalXP() int {
	return q.totalXP
}

func (q *QuestTracker) EarnedXP() int {
	earned := 0
	for _, item := range q.items {
		if item.Completed {
			earned += item.XP
		}
	}
	if q.AllCompleted() {
		earned += q.bonus
	}
	return earned
}

func (q *QuestTracker) Items() []model.QuestItem {
	out := make([]model.QuestItem, len(q.items))
	copy(out, q.items)
	return out
}

func (q *QuestTracker) State() model.QuestState {
	return model.QuestState{
		Items:           q.Items(),
		TotalXP:         q.totalXP,
		EarnedXP:        q.EarnedXP(),
		CompletionBonus: q.bonus,
		Completed:       q.AllCompleted(),
		Fallback:        q.fallback,
	}
}

func leadingToken(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
