package service

import (
	"time"

	"trailquest/internal/model"
	"trailquest/pkg/geo"
)

const DefaultRevealRadiusMeters = 50.0

// RevealEngine carries per-discovery reveal state across position ticks for one hike.
// It is not safe for concurrent use; the owning Session serializes access.
type RevealEngine struct {
	discoveries   []model.Discovery
	states        map[string]*model.RevealState
	defaultRadius float64
	now           func() time.Time
}

func NewRevealEngine(discoveries []model.Discovery, defaultRadius float64) *RevealEngine {
	if defaultRadius <= 0 {
		defaultRadius = DefaultRevealRadiusMeters
	}

	states := make(map[string]*model.RevealState, len(discoveries))
	for _, d := range discoveries {
		states[d.ID] = &model.RevealState{DiscoveryID: d.ID}
	}

	return &RevealEngine{
		discoveries:   discoveries,
		states:        states,
		defaultRadius: defaultRadius,
		now:           time.Now,
	}
}

func (e *RevealEngine) radius(d model.Discovery) float64 {
	if d.RevealRadiusMeters > 0 {
		return d.RevealRadiusMeters
	}
	return e.defaultRadius
}

// Update recomputes distances for pos and returns the full reveal state plus the
// discoveries that transitioned to revealed on this tick while still uncaptured.
func (e *RevealEngine) Update(pos model.LatLng) ([]model.RevealState, []model.Discovery) {
	var newlyRevealed []model.Discovery

	for _, d := range e.discoveries {
		state := e.states[d.ID]
		if d.Location == nil || !d.Location.Valid() || !pos.Valid() {
			state.DistanceMeters = nil
			continue
		}

		distance := geo.DistanceMeters(pos, *d.Location)
		state.DistanceMeters = &distance

		if state.IsRevealed || distance > e.radius(d) {
			continue
		}

		revealedAt := e.now().UTC()
		state.IsRevealed = true
		state.RevealedAt = &revealedAt
		if !state.IsCaptured {
			newlyRevealed = append(newlyRevealed, d)
		}
	}

	return e.Snapshot(), newlyRevealed
}

func (e *RevealEngine) Discovery(id string) (model.Discovery, bool) {
	for _, d := range e.discoveries {
		if d.ID == id {
			return d, true
		}
	}
	return model.Discovery{}, false
}

func (e *RevealEngine) State(id string) (model.RevealState, bool) {
	state, ok := e.states[id]
	if !ok {
		return model.RevealState{}, false
	}
	return copyRevealState(state), true
}

// MarkCaptured is permanent for the lifetime of the engine.
func (e *RevealEngine) MarkCaptured(id string) {
	if state, ok := e.states[id]; ok {
		state.IsCaptured = true
	}
}

// Snapshot returns states in catalogue order.
func (e *RevealEngine) Snapshot() []model.RevealState {
	out := make([]model.RevealState, 0, len(e.discoveries))
	for _, d := range e.discoveries {
		out = append(out, copyRevealState(e.states[d.ID]))
	}
	return out
}

func copyRevealState(s *model.RevealState) model.RevealState {
	c := *s
	if s.DistanceMeters != nil {
		d := *s.DistanceMeters
		c.DistanceMeters = &d
	}
	if s.RevealedAt != nil {
		t := *s.RevealedAt
		c.RevealedAt = &t
	}
	return c
}
