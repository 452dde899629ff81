package model

import "time"

type EventType string

const (
	EventDiscoveryRevealed EventType = "discovery.revealed"
	EventDiscoveryCaptured EventType = "discovery.captured"
	EventBadgeEarned       EventType = "badge.earned"
	EventQuestCompleted    EventType = "quest.completed"
	EventQuestAllCompleted EventType = "quest.all_completed"
	EventUploadProgress    EventType = "upload.progress"
)

type Event struct {
	Type    EventType      `json:"type"`
	HikeID  string         `json:"hike_id"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}
