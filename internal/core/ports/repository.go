package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// ImageStore persists uploaded image bytes and returns a stable reference.
type ImageStore interface {
	StoreImage(ctx context.Context, img domain.ImageUpload) (string, error)
}

// ImageLoader resolves a stored reference back to its bytes.
type ImageLoader interface {
	LoadImage(ctx context.Context, ref string) (domain.ImageInput, error)
}

// RecommendationSink receives finished recommendations. Failures are non-fatal to callers.
type RecommendationSink interface {
	SaveRecommendation(ctx context.Context, user domain.User, rec domain.Recommendation) error
}

// RecommendationRepository reads back a user's stored recommendations.
type RecommendationRepository interface {
	GetRecommendation(ctx context.Context, userID, id string) (domain.Recommendation, error)
	ListRecommendations(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error)
}

// PreviewEnergyStore records the loudness computed from a track preview.
type PreviewEnergyStore interface {
	UpdatePreviewEnergy(ctx context.Context, recommendationID string, energy float64) error
}
