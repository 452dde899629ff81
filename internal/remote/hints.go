package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trailquest/internal/model"
)

type HintClient struct {
	client
}

func NewHintClient(cfg Config) *HintClient {
	return &HintClient{client: newClient(cfg)}
}

type speciesHint struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Hint     string `json:"hint"`
	Rarity   string `json:"rarity"`
	XP       int    `json:"xp"`
}

type speciesHintsResponse struct {
	Hints []speciesHint `json:"hints"`
}

func (c *HintClient) GetSpeciesHints(ctx context.Context, location model.LatLng) ([]model.SpeciesHint, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(location.Lat, 'f', 5, 64))
	query.Set("lng", strconv.FormatFloat(location.Lng, 'f', 5, 64))

	var resp speciesHintsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/species/hints?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch species hints: %w", err)
	}

	hints := make([]model.SpeciesHint, 0, len(resp.Hints))
	for _, h := range resp.Hints {
		if h.Name == "" {
			continue
		}
		hints = append(hints, model.SpeciesHint{
			Name:     h.Name,
			Category: h.Category,
			Hint:     h.Hint,
			Rarity:   model.Rarity(h.Rarity),
			XP:       h.XP,
		})
	}
	return hints, nil
}
