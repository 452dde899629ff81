package model

import (
	"time"

	"trailquest/pkg/geo"
)

type LatLng = geo.LatLng

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Discovery is catalogue reference data for a point of interest on a trail.
// A nil Location marks a malformed entry that can never be revealed.
type Discovery struct {
	ID                 string
	TrailID            string
	Type               string
	Title              string
	Location           *LatLng
	RevealRadiusMeters float64
	Rarity             Rarity
}

type Position struct {
	LatLng
	Altitude   *float64
	Accuracy   *float64
	RecordedAt time.Time
}

// RevealState is derived per hike and never persisted.
type RevealState struct {
	DiscoveryID    string
	DistanceMeters *float64
	IsRevealed     bool
	IsCaptured     bool
	RevealedAt     *time.Time
}
