package model

import "time"

type CaptureSource string

const (
	CaptureSourceManual CaptureSource = "manual"
	CaptureSourceCamera CaptureSource = "camera"
)

type CapturedDiscovery struct {
	ID          string
	HikeID      string
	DiscoveryID string
	Location    LatLng
	PhotoRef    *string
	Note        *string
	CapturedAt  time.Time
}

// Identification is a camera-sourced find that is not tied to a catalogue discovery.
type Identification struct {
	ID           string
	HikeID       string
	Name         string
	Category     string
	Rarity       Rarity
	Location     LatLng
	PhotoRef     *string
	IdentifiedAt time.Time
}

// MediaInput references bytes already written to local storage by the device.
type MediaInput struct {
	LocalRef string
	Kind     MediaKind
	Width    int
	Height   int
	Duration float64
}
