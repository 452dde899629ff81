package model

import "time"

type BadgeType string

const (
	BadgeFirstCapture       BadgeType = "first-capture"
	BadgeCameraDiscovery    BadgeType = "camera-discovery"
	BadgeLegendaryFind      BadgeType = "legendary-find"
	BadgeNaturePhotographer BadgeType = "nature-photographer"
	BadgeQuestComplete      BadgeType = "quest-complete"
)

type Badge struct {
	ID       string
	HikeID   string
	Type     BadgeType
	Name     string
	Icon     string
	XP       int
	EarnedAt time.Time
	// Delayed badges are presented after the primary badge of the same event.
	Delayed bool
}
