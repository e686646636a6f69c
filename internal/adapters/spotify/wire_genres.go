package spotify

import (
	"context"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// AvailableGenres lists the genre identifiers Spotify accepts as recommendation seeds.
func (c *Client) AvailableGenres(ctx context.Context) ([]string, error) {
	var body genreSeedsResponse
	if err := c.getJSON(ctx, "genre_seeds", "/recommendations/available-genre-seeds", nil, &body); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(body.Genres))
	for _, g := range body.Genres {
		if g = domain.NormalizeGenre(g); g != "" {
			out = append(out, g)
		}
	}
	return out, nil
}
