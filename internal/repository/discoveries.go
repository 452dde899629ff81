package repository

import (
	"context"
	"fmt"

	"trailquest/internal/model"

	"github.com/Masterminds/squirrel"
)

type Discovery struct {
	ID                 string   `db:"id"`
	TrailID            string   `db:"trail_id"`
	Type               string   `db:"type"`
	Title              string   `db:"title"`
	Lat                *float64 `db:"lat"`
	Lng                *float64 `db:"lng"`
	RevealRadiusMeters float64  `db:"reveal_radius_m"`
	Rarity             string   `db:"rarity"`
}

func (r *Repository) ListDiscoveriesByTrail(ctx context.Context, trailID string) ([]model.Discovery, error) {
	query, args, err := squirrel.
		Select("id", "trail_id", "type", "title", "lat", "lng", "reveal_radius_m", "rarity").
		From("discoveries").
		Where(squirrel.Eq{"trail_id": trailID}).
		OrderBy("sort_order", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build discoveries query: %w", err)
	}

	var rows []Discovery
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list discoveries: %w", err)
	}

	discoveries := make([]model.Discovery, 0, len(rows))
	for _, row := range rows {
		discoveries = append(discoveries, row.toModel())
	}
	return discoveries, nil
}

// toModel leaves Location nil when either coordinate is missing.
func (d Discovery) toModel() model.Discovery {
	out := model.Discovery{
		ID:                 d.ID,
		TrailID:            d.TrailID,
		Type:               d.Type,
		Title:              d.Title,
		RevealRadiusMeters: d.RevealRadiusMeters,
		Rarity:             model.Rarity(d.Rarity),
	}
	if d.Lat != nil && d.Lng != nil {
		out.Location = &model.LatLng{Lat: *d.Lat, Lng: *d.Lng}
	}
	return out
}
