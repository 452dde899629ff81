package repository

import (
	"context"
	"fmt"

	"trailquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// SaveCapture stores the capture and bumps the hike counter in one transaction.
// A second capture of the same discovery in a hike returns ErrAlreadyCaptured.
func (r *Repository) SaveCapture(ctx context.Context, capture *model.CapturedDiscovery) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("captures").
			SetMap(map[string]interface{}{
				"id":           capture.ID,
				"hike_id":      capture.HikeID,
				"discovery_id": capture.DiscoveryID,
				"lat":          capture.Location.Lat,
				"lng":          capture.Location.Lng,
				"photo_ref":    capture.PhotoRef,
				"note":         capture.Note,
				"captured_at":  capture.CapturedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build capture insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyCaptured
			}
			return fmt.Errorf("failed to insert capture: %w", err)
		}

		return bumpHikeCounter(ctx, tx, capture.HikeID, "capture_count")
	})
}

func (r *Repository) SaveIdentification(ctx context.Context, ident *model.Identification) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("identifications").
			SetMap(map[string]interface{}{
				"id":            ident.ID,
				"hike_id":       ident.HikeID,
				"name":          ident.Name,
				"category":      ident.Category,
				"rarity":        string(ident.Rarity),
				"lat":           ident.Location.Lat,
				"lng":           ident.Location.Lng,
				"photo_ref":     ident.PhotoRef,
				"identified_at": ident.IdentifiedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build identification insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert identification: %w", err)
		}

		return bumpHikeCounter(ctx, tx, ident.HikeID, "camera_count")
	})
}

// SaveBadge ignores a badge type the hike already holds.
func (r *Repository) SaveBadge(ctx context.Context, badge *model.Badge) error {
	query, args, err := squirrel.
		Insert("badges").
		SetMap(map[string]interface{}{
			"id":        badge.ID,
			"hike_id":   badge.HikeID,
			"type":      string(badge.Type),
			"name":      badge.Name,
			"icon":      badge.Icon,
			"xp":        badge.XP,
			"earned_at": badge.EarnedAt,
		}).
		Suffix("ON CONFLICT (hike_id, type) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build badge insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert badge: %w", err)
	}
	return nil
}

func bumpHikeCounter(ctx context.Context, tx *sqlx.Tx, hikeID, column string) error {
	query, args, err := squirrel.
		Update("hikes").
		Set(column, squirrel.Expr(column+" + 1")).
		Where(squirrel.Eq{"id": hikeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build hike counter update query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update hike counter: %w", err)
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
