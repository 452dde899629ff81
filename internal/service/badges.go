package service

import (
	"time"

	"trailquest/internal/model"

	"github.com/google/uuid"
)

const NaturePhotographerThreshold = 10

type badgeDefinition struct {
	Name    string
	Icon    string
	XP      int
	Delayed bool
}

var BadgeCatalog = map[model.BadgeType]badgeDefinition{
	model.BadgeFirstCapture:       {Name: "First Discovery", Icon: "compass", XP: 25},
	model.BadgeCameraDiscovery:    {Name: "Eagle Eye", Icon: "camera", XP: 30},
	model.BadgeLegendaryFind:      {Name: "Legendary Find", Icon: "star", XP: 100, Delayed: true},
	model.BadgeNaturePhotographer: {Name: "Nature Photographer", Icon: "aperture", XP: 75, Delayed: true},
	model.BadgeQuestComplete:      {Name: "Quest Master", Icon: "trophy", XP: 50},
}

// Tally counts qualifying events within one hike.
type Tally struct {
	Captures       int
	CameraCaptures int
}

type BadgeInput struct {
	HikeID string
	Prev   Tally
	Next   Tally
	// Rarity of the identification that triggered this evaluation, if any.
	Rarity model.Rarity
	Quest  []model.QuestItem
	Earned map[model.BadgeType]bool
}

type badgeRule struct {
	Type    model.BadgeType
	Matches func(in BadgeInput) bool
}

// BadgeRules is evaluated in order so simultaneous triggers present deterministically.
var BadgeRules = []badgeRule{
	{
		Type: model.BadgeFirstCapture,
		Matches: func(in BadgeInput) bool {
			return in.Prev.Captures == 0 && in.Next.Captures >= 1
		},
	},
	{
		Type: model.BadgeCameraDiscovery,
		Matches: func(in BadgeInput) bool {
			return in.Prev.CameraCaptures == 0 && in.Next.CameraCaptures >= 1
		},
	},
	{
		Type: model.BadgeLegendaryFind,
		Matches: func(in BadgeInput) bool {
			return in.Rarity == model.RarityLegendary
		},
	},
	{
		Type: model.BadgeNaturePhotographer,
		Matches: func(in BadgeInput) bool {
			return in.Prev.CameraCaptures < NaturePhotographerThreshold &&
				in.Next.CameraCaptures == NaturePhotographerThreshold
		},
	},
	{
		Type: model.BadgeQuestComplete,
		Matches: func(in BadgeInput) bool {
			return questAllCompleted(in.Quest)
		},
	},
}

// EvaluateBadges returns the badges newly earned by one event. Types already present
// in in.Earned are never returned again.
func EvaluateBadges(in BadgeInput, now time.Time) []model.Badge {
	var earned []model.Badge

	for _, rule := range BadgeRules {
		if in.Earned[rule.Type] || !rule.Matches(in) {
			continue
		}
		earned = append(earned, NewBadge(in.HikeID, rule.Type, now))
	}

	return earned
}

func NewBadge(hikeID string, badgeType model.BadgeType, now time.Time) model.Badge {
	def := BadgeCatalog[badgeType]
	return model.Badge{
		ID:       uuid.NewString(),
		HikeID:   hikeID,
		Type:     badgeType,
		Name:     def.Name,
		Icon:     def.Icon,
		XP:       def.XP,
		EarnedAt: now.UTC(),
		Delayed:  def.Delayed,
	}
}

func questAllCompleted(items []model.QuestItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Completed {
			return false
		}
	}
	return true
}
