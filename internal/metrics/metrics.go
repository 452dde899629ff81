// Package metrics exposes prometheus collectors for the discovery engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trailquest"

var (
	ActiveHikes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_hikes",
		Help:      "Hike sessions currently held in memory.",
	})

	PositionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "positions_processed_total",
		Help:      "Position ticks evaluated by the reveal engine.",
	})

	PositionsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "positions_coalesced_total",
		Help:      "Position updates dropped in favour of a newer one.",
	})

	DiscoveriesRevealed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discoveries_revealed_total",
		Help:      "Discoveries that transitioned to revealed.",
	})

	Captures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Capture transactions by source and outcome.",
	}, []string{"source", "outcome"})

	BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "badges_awarded_total",
		Help:      "Badges awarded by type.",
	}, []string{"type"})

	QuestItemsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quest_items_completed_total",
		Help:      "Quest items marked completed.",
	})

	UploadsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_enqueued_total",
		Help:      "Media items appended to the upload queue.",
	})

	UploadsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_synced_total",
		Help:      "Media items transferred and registered.",
	})

	UploadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_failed_total",
		Help:      "Upload attempts that left the item pending.",
	})
)

const (
	OutcomeSuccess      = "success"
	OutcomePrecondition = "precondition_failed"
	OutcomeFailed       = "failed"
)
