package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// CatalogProvider returns tracks matching an audio target profile.
// Adapters wrap token-exchange failures with domain.ErrProviderAuth.
type CatalogProvider interface {
	Recommend(ctx context.Context, q domain.CatalogQuery) ([]domain.TrackCandidate, error)
	AvailableGenres(ctx context.Context) ([]string, error)
}
