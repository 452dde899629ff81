package model

import "time"

type Hike struct {
	ID        string
	HikerID   int64
	TrailID   string
	StartedAt time.Time
}

// HikeSnapshot is a point-in-time copy of a hike session's state.
type HikeSnapshot struct {
	Hike            Hike
	Position        *Position
	DistanceMiles   float64
	Reveals         []RevealState
	Captures        []CapturedDiscovery
	Identifications []Identification
	Badges          []Badge
	Quest           QuestState
	CaptureCount    int
	CameraCount     int
	UpdatedAt       time.Time
}

// HikeSummary is the persisted record of a hike, available after it ended.
type HikeSummary struct {
	HikeID          string
	HikerID         int64
	TrailID         string
	StartedAt       time.Time
	EndedAt         *time.Time
	DistanceMiles   float64
	CaptureCount    int
	CameraCount     int
	DiscoveryIDs    []string
	BadgeTypes      []BadgeType
	QuestItemsTotal int
	QuestItemsDone  int
}
