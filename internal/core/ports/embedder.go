package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// Embedder turns images and text into vectors in one shared embedding space.
type Embedder interface {
	EmbedImage(ctx context.Context, img domain.ImageInput) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
