package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// IdentityProvider resolves a bearer credential to a user.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// PreviewQueue accepts preview analysis jobs. Submit must not block.
type PreviewQueue interface {
	Submit(job domain.PreviewJob)
}
