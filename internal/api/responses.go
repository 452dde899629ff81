package api

import (
	"errors"
	"net/http"
	"time"

	"trailquest/internal/model"
	"trailquest/internal/service"
	"trailquest/pkg/auth"

	"github.com/gin-gonic/gin"
)

type PositionResponse struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type RevealResponse struct {
	DiscoveryID    string     `json:"discovery_id"`
	DistanceMeters *float64   `json:"distance_meters"`
	IsRevealed     bool       `json:"is_revealed"`
	IsCaptured     bool       `json:"is_captured"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}

type CaptureResponse struct {
	ID          string    `json:"id"`
	DiscoveryID string    `json:"discovery_id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	PhotoRef    *string   `json:"photo_ref,omitempty"`
	Note        *string   `json:"note,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}

type IdentificationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Rarity       string    `json:"rarity"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	PhotoRef     *string   `json:"photo_ref,omitempty"`
	IdentifiedAt time.Time `json:"identified_at"`
}

type BadgeResponse struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	XP       int       `json:"xp"`
	EarnedAt time.Time `json:"earned_at"`
}

type QuestItemResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Hint        string     `json:"hint"`
	XP          int        `json:"xp"`
	Rarity      string     `json:"rarity"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type QuestResponse struct {
	Items           []QuestItemResponse `json:"items"`
	TotalXP         int                 `json:"total_xp"`
	EarnedXP        int                 `json:"earned_xp"`
	CompletionBonus int                 `json:"completion_bonus"`
	Completed       bool                `json:"completed"`
	Fallback        bool                `json:"fallback"`
}

type UploadItemResponse struct {
	ID        string         `json:"id"`
	LocalRef  string         `json:"local_ref"`
	Kind      string         `json:"kind"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Synced    bool           `json:"synced"`
	CreatedAt time.Time      `json:"created_at"`
	SyncedAt  *time.Time     `json:"synced_at,omitempty"`
}

type SnapshotResponse struct {
	HikeID          string                   `json:"hike_id"`
	TrailID         string                   `json:"trail_id"`
	StartedAt       time.Time                `json:"started_at"`
	Position        *PositionResponse        `json:"position,omitempty"`
	DistanceMiles   float64                  `json:"distance_miles"`
	Reveals         []RevealResponse         `json:"reveals"`
	Captures        []CaptureResponse        `json:"captures"`
	Identifications []IdentificationResponse `json:"identifications"`
	Badges          []BadgeResponse          `json:"badges"`
	Quest           QuestResponse            `json:"quest"`
	CaptureCount    int                      `json:"capture_count"`
	CameraCount     int                      `json:"camera_count"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type CaptureResultResponse struct {
	Capture        *CaptureResponse        `json:"capture,omitempty"`
	Identification *IdentificationResponse `json:"identification,omitempty"`
	Badge          *BadgeResponse          `json:"badge,omitempty"`
	QuestCompleted *QuestItemResponse      `json:"quest_completed,omitempty"`
	QueueItem      *UploadItemResponse     `json:"queue_item,omitempty"`
}

type SummaryResponse struct {
	HikeID          string     `json:"hike_id"`
	TrailID         string     `json:"trail_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DistanceMiles   float64    `json:"distance_miles"`
	CaptureCount    int        `json:"capture_count"`
	CameraCount     int        `json:"camera_count"`
	DiscoveryIDs    []string   `json:"discovery_ids"`
	BadgeTypes      []string   `json:"badge_types"`
	QuestItemsTotal int        `json:"quest_items_total"`
	QuestItemsDone  int        `json:"quest_items_done"`
}

func toSnapshotResponse(s *model.HikeSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		HikeID:          s.Hike.ID,
		TrailID:         s.Hike.TrailID,
		StartedAt:       s.Hike.StartedAt,
		DistanceMiles:   s.DistanceMiles,
		Reveals:         make([]RevealResponse, 0, len(s.Reveals)),
		Captures:        make([]CaptureResponse, 0, len(s.Captures)),
		Identifications: make([]IdentificationResponse, 0, len(s.Identifications)),
		Badges:          make([]BadgeResponse, 0, len(s.Badges)),
		Quest:           toQuestResponse(s.Quest),
		CaptureCount:    s.CaptureCount,
		CameraCount:     s.CameraCount,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Position != nil {
		resp.Position = &PositionResponse{
			Lat:        s.Position.Lat,
			Lng:        s.Position.Lng,
			Altitude:   s.Position.Altitude,
			Accuracy:   s.Position.Accuracy,
			RecordedAt: s.Position.RecordedAt,
		}
	}
	for _, r := range s.Reveals {
		resp.Reveals = append(resp.Reveals, RevealResponse{
			DiscoveryID:    r.DiscoveryID,
			DistanceMeters: r.DistanceMeters,
			IsRevealed:     r.IsRevealed,
			IsCaptured:     r.IsCaptured,
			RevealedAt:     r.RevealedAt,
		})
	}
	for i := range s.Captures {
		resp.Captures = append(resp.Captures, *toCaptureResponse(&s.Captures[i]))
	}
	for i := range s.Identifications {
		resp.Identifications = append(resp.Identifications, *toIdentificationResponse(&s.Identifications[i]))
	}
	for i := range s.Badges {
		resp.Badges = append(resp.Badges, *toBadgeResponse(&s.Badges[i]))
	}
	return resp
}

func toCaptureResponse(c *model.CapturedDiscovery) *CaptureResponse {
	if c == nil {
		return nil
	}
	return &CaptureResponse{
		ID:          c.ID,
		DiscoveryID: c.DiscoveryID,
		Lat:         c.Location.Lat,
		Lng:         c.Location.Lng,
		PhotoRef:    c.PhotoRef,
		Note:        c.Note,
		CapturedAt:  c.CapturedAt,
	}
}

func toIdentificationResponse(i *model.Identification) *IdentificationResponse {
	if i == nil {
		return nil
	}
	return &IdentificationResponse{
		ID:           i.ID,
		Name:         i.Name,
		Category:     i.Category,
		Rarity:       string(i.Rarity),
		Lat:          i.Location.Lat,
		Lng:          i.Location.Lng,
		PhotoRef:     i.PhotoRef,
		IdentifiedAt: i.IdentifiedAt,
	}
}

func toBadgeResponse(b *model.Badge) *BadgeResponse {
	if b == nil {
		return nil
	}
	return &BadgeResponse{
		ID:       b.ID,
		Type:     string(b.Type),
		Name:     b.Name,
		Icon:     b.Icon,
		XP:       b.XP,
		EarnedAt: b.EarnedAt,
	}
}

func toQuestItemResponse(q *model.QuestItem) *QuestItemResponse {
	if q == nil {
		return nil
	}
	return &QuestItemResponse{
		ID:          q.ID,
		Name:        q.Name,
		Category:    q.Category,
		Hint:        q.Hint,
		XP:          q.XP,
		Rarity:      string(q.Rarity),
		Completed:   q.Completed,
		CompletedAt: q.CompletedAt,
	}
}

func toQuestResponse(q model.QuestState) QuestResponse {
	resp := QuestResponse{
		Items:           make([]QuestItemResponse, 0, len(q.Items)),
		TotalXP:         q.TotalXP,
		EarnedXP:        q.EarnedXP,
		CompletionBonus: q.CompletionBonus,
		Completed:       q.Completed,
		Fallback:        q.Fallback,
	}
	for i := range q.Items {
		resp.Items = append(resp.Items, *toQuestItemResponse(&q.Items[i]))
	}
	return resp
}

func toUploadItemResponse(item *model.UploadQueueItem) *UploadItemResponse {
	if item == nil {
		return nil
	}
	return &UploadItemResponse{
		ID:        item.ID,
		LocalRef:  item.LocalRef,
		Kind:      string(item.Kind),
		Metadata:  item.Metadata,
		Synced:    item.Synced,
		CreatedAt: item.CreatedAt,
		SyncedAt:  item.SyncedAt,
	}
}

func toCaptureResultResponse(r *service.CaptureResult) CaptureResultResponse {
	return CaptureResultResponse{
		Capture:        toCaptureResponse(r.Capture),
		Identification: toIdentificationResponse(r.Identification),
		Badge:          toBadgeResponse(r.Badge),
		QuestCompleted: toQuestItemResponse(r.QuestCompleted),
		QueueItem:      toUploadItemResponse(r.QueueItem),
	}
}

func toSummaryResponse(s *model.HikeSummary) SummaryResponse {
	resp := SummaryResponse{
		HikeID:          s.HikeID,
		TrailID:         s.TrailID,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DistanceMiles:   s.DistanceMiles,
		CaptureCount:    s.CaptureCount,
		CameraCount:     s.CameraCount,
		DiscoveryIDs:    s.DiscoveryIDs,
		BadgeTypes:      make([]string, 0, len(s.BadgeTypes)),
		QuestItemsTotal: s.QuestItemsTotal,
		QuestItemsDone:  s.QuestItemsDone,
	}
	if resp.DiscoveryIDs == nil {
		resp.DiscoveryIDs = []string{}
	}
	for _, t := range s.BadgeTypes {
		resp.BadgeTypes = append(resp.BadgeTypes, string(t))
	}
	return resp
}

// errorStatus maps engine errors to HTTP status codes and client messages.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidPosition):
		return http.StatusBadRequest, "invalid position"
	case errors.Is(err, service.ErrPreconditionFailed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrHikeAlreadyActive):
		return http.StatusConflict, "hike already active"
	case errors.Is(err, service.ErrHikeNotFound):
		return http.StatusNotFound, "hike not found"
	case errors.Is(err, service.ErrCaptureFailed):
		return http.StatusBadGateway, "capture failed, try again"
	case errors.Is(err, service.ErrUploadFailed):
		return http.StatusBadGateway, "upload failed, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func telegramUser(c *gin.Context) (*auth.TelegramUserData, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return user, true
}
