package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/logging"
)

const (
	// DefaultCatalogTimeout bounds one provider call.
	DefaultCatalogTimeout = 10 * time.Second
	// DefaultMaxSeedGenres is the largest seed list Spotify accepts.
	DefaultMaxSeedGenres = 5
	// DefaultCandidateLimit is how many tracks are requested from the provider.
	DefaultCandidateLimit = 1
)

// Selector picks exactly one track for a profile and genre selection.
type Selector struct {
	catalog   ports.CatalogProvider
	genres    domain.GenreSet
	timeout   time.Duration
	maxGenres int
	limit     int
	logger    zerolog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithCatalogTimeout overrides DefaultCatalogTimeout.
func WithCatalogTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxSeedGenres overrides DefaultMaxSeedGenres.
func WithMaxSeedGenres(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.maxGenres = n
		}
	}
}

// WithCandidateLimit sets how many candidates the provider is asked for.
func WithCandidateLimit(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithSelectorLogger sets the selector logger.
func WithSelectorLogger(l zerolog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector constructs a Selector over the recognized genres.
func NewSelector(catalog ports.CatalogProvider, genres domain.GenreSet, opts ...SelectorOption) *Selector {
	s := &Selector{
		catalog:   catalog,
		genres:    genres,
		timeout:   DefaultCatalogTimeout,
		maxGenres: DefaultMaxSeedGenres,
		limit:     DefaultCandidateLimit,
		logger:    logging.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Genres returns the recognized genre set.
func (s *Selector) Genres() domain.GenreSet { return s.genres }

// ValidateGenres filters the requested genres, logging dropped identifiers.
// It fails with ErrInvalidGenreSelection when nothing recognized remains.
func (s *Selector) ValidateGenres(requested []string) ([]string, error) {
	accepted, rejected := s.genres.Filter(requested)
	if len(rejected) > 0 {
		s.logger.Warn().Strs("genres", rejected).Msg("dropping unrecognized genres")
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("selector: none of %q is a recognized genre: %w", requested, domain.ErrInvalidGenreSelection)
	}
	if len(accepted) > s.maxGenres {
		s.logger.Warn().
			Strs("genres", accepted).
			Int("max_seed_genres", s.maxGenres).
			Msg("too many genres, truncating seed list")
		accepted = accepted[:s.maxGenres]
	}
	return accepted, nil
}

// Select returns the first provider-ranked track for profile and genres.
func (s *Selector) Select(ctx context.Context, profile domain.AudioTargetProfile, genres []string) (domain.TrackCandidate, error) {
	seeds, err := s.ValidateGenres(genres)
	if err != nil {
		return domain.TrackCandidate{}, err
	}

	q := domain.CatalogQuery{Profile: profile.Clamp(), Genres: seeds, Limit: s.limit}
	tracks, err := await(ctx, s.timeout, func(ctx context.Context) ([]domain.TrackCandidate, error) {
		return s.catalog.Recommend(ctx, q)
	})
	switch {
	case isStageTimeout(err):
		return domain.TrackCandidate{}, fmt.Errorf("selector: catalog call exceeded %s: %w: %w", s.timeout, domain.ErrProvider, err)
	case errors.Is(err, domain.ErrCanceled):
		return domain.TrackCandidate{}, err
	case errors.Is(err, domain.ErrProviderAuth):
		return domain.TrackCandidate{}, fmt.Errorf("selector: %w", err)
	case err != nil:
		return domain.TrackCandidate{}, fmt.Errorf("selector: %w: %w", domain.ErrProvider, err)
	}

	for _, t := range tracks {
		if !t.IsZero() {
			return t, nil
		}
	}
	return domain.TrackCandidate{}, fmt.Errorf("selector: provider returned no tracks for %v: %w", seeds, domain.ErrNoCandidates)
}
