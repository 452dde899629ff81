package model

import "time"

type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

func (k MediaKind) ContentType() string {
	switch k {
	case MediaKindVideo:
		return "video/mp4"
	case MediaKindAudio:
		return "audio/m4a"
	default:
		return "image/jpeg"
	}
}

type UploadQueueItem struct {
	ID        string
	HikeID    string
	LocalRef  string
	Kind      MediaKind
	Metadata  map[string]any
	Synced    bool
	CreatedAt time.Time
	SyncedAt  *time.Time
}

type UploadDestination struct {
	UploadURL string
	MediaID   string
}
