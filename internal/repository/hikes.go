package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trailquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type hikeSummary struct {
	ID            string         `db:"id"`
	HikerID       int64          `db:"hiker_id"`
	TrailID       string         `db:"trail_id"`
	StartedAt     time.Time      `db:"started_at"`
	EndedAt       *time.Time     `db:"ended_at"`
	DistanceMiles float64        `db:"distance_miles"`
	CaptureCount  int            `db:"capture_count"`
	CameraCount   int            `db:"camera_count"`
	DiscoveryIDs  pq.StringArray `db:"discovery_ids"`
	BadgeTypes    pq.StringArray `db:"badge_types"`
	QuestTotal    int            `db:"quest_total"`
	QuestDone     int            `db:"quest_done"`
}

func (r *Repository) SaveHike(ctx context.Context, hike *model.Hike) error {
	query, args, err := squirrel.
		Insert("hikes").
		SetMap(map[string]interface{}{
			"id":         hike.ID,
			"hiker_id":   hike.HikerID,
			"trail_id":   hike.TrailID,
			"started_at": hike.StartedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build hike insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert hike: %w", err)
	}
	return nil
}

func (r *Repository) FinishHike(ctx context.Context, hikeID string, distanceMiles float64, endedAt time.Time) error {
	query, args, err := squirrel.
		Update("hikes").
		SetMap(map[string]interface{}{
			"ended_at":       endedAt,
			"distance_miles": distanceMiles,
		}).
		Where(squirrel.Eq{"id": hikeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build hike update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) HikeSummary(ctx context.Context, hikeID string) (*model.HikeSummary, error) {
	query, args, err := squirrel.
		Select(
			"h.id", "h.hiker_id", "h.trail_id", "h.started_at", "h.ended_at",
			"h.distance_miles", "h.capture_count", "h.camera_count",
			"COALESCE((SELECT array_agg(c.discovery_id ORDER BY c.captured_at) FROM captures c WHERE c.hike_id = h.id), '{}') AS discovery_ids",
			"COALESCE((SELECT array_agg(b.type ORDER BY b.earned_at) FROM badges b WHERE b.hike_id = h.id), '{}') AS badge_types",
			"(SELECT count(*) FROM quest_items q WHERE q.hike_id = h.id) AS quest_total",
			"(SELECT count(*) FROM quest_items q WHERE q.hike_id = h.id AND q.completed) AS quest_done",
		).
		From("hikes h").
		Where(squirrel.Eq{"h.id": hikeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build hike summary query: %w", err)
	}

	var row hikeSummary
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	badgeTypes := make([]model.BadgeType, 0, len(row.BadgeTypes))
	for _, t := range row.BadgeTypes {
		badgeTypes = append(badgeTypes, model.BadgeType(t))
	}

	return &model.HikeSummary{
		HikeID:          row.ID,
		HikerID:         row.HikerID,
		TrailID:         row.TrailID,
		StartedAt:       row.StartedAt,
		EndedAt:         row.EndedAt,
		DistanceMiles:   row.DistanceMiles,
		CaptureCount:    row.CaptureCount,
		CameraCount:     row.CameraCount,
		DiscoveryIDs:    []string(row.DiscoveryIDs),
		BadgeTypes:      badgeTypes,
		QuestItemsTotal: row.QuestTotal,
		QuestItemsDone:  row.QuestDone,
	}, nil
}
