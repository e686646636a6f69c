package spotify

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const (
	minRecommendationLimit = 1
	maxRecommendationLimit = 100
)

// Recommend asks Spotify for tracks seeded by genres and targeted at the profile.
// Tracks are returned in Spotify's ranking order.
func (c *Client) Recommend(ctx context.Context, q domain.CatalogQuery) ([]domain.TrackCandidate, error) {
	var body recommendationsResponse
	if err := c.getJSON(ctx, "recommendations", "/recommendations", recommendationParams(q), &body); err != nil {
		return nil, err
	}
	return mapTracksToDomain(body.Tracks), nil
}

func recommendationParams(q domain.CatalogQuery) url.Values {
	limit := q.Limit
	if limit < minRecommendationLimit {
		limit = minRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}

	p := q.Profile.Clamp()
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("seed_genres", strings.Join(q.Genres, ","))
	v.Set("target_valence", formatTarget(p.Valence))
	v.Set("target_energy", formatTarget(p.Energy))
	v.Set("target_danceability", formatTarget(p.Danceability))
	v.Set("target_instrumentalness", formatTarget(p.Instrumentalness))
	v.Set("target_tempo", strconv.FormatFloat(p.Tempo, 'f', 1, 64))
	return v
}

func formatTarget(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
