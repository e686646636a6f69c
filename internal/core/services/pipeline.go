package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/logging"
)

// DefaultPersistTimeout bounds the best-effort save after a successful run.
const DefaultPersistTimeout = 5 * time.Second

// Pipeline sequences extraction, mapping, selection and explanation for one
// request. A Pipeline holds no per-run state and may serve runs concurrently.
type Pipeline struct {
	extractor *Extractor
	mapper    *Mapper
	selector  *Selector
	explainer *Explainer

	sink           ports.RecommendationSink
	previews       ports.PreviewQueue
	observer       Observer
	logger         zerolog.Logger
	persistTimeout time.Duration
	maxUploadBytes int64
	now            func() time.Time
	newID          func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSink sets where finished recommendations are persisted.
func WithSink(s ports.RecommendationSink) PipelineOption {
	return func(p *Pipeline) { p.sink = s }
}

// WithPreviewQueue enables preview analysis for persisted recommendations.
func WithPreviewQueue(q ports.PreviewQueue) PipelineOption {
	return func(p *Pipeline) { p.previews = q }
}

// WithObserver registers an observer for transitions and outcomes.
// Repeated calls notify every registered observer in order.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) {
		if o == nil {
			return
		}
		switch cur := p.observer.(type) {
		case nil, nopObserver:
			p.observer = o
		case MultiObserver:
			p.observer = append(cur, o)
		default:
			p.observer = MultiObserver{cur, o}
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithPersistTimeout overrides DefaultPersistTimeout.
func WithPersistTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.persistTimeout = d
		}
	}
}

// WithMaxUploadBytes overrides domain.MaxUploadBytes.
func WithMaxUploadBytes(n int64) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxUploadBytes = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator replaces the UUID generator, for tests.
func WithIDGenerator(gen func() string) PipelineOption {
	return func(p *Pipeline) { p.newID = gen }
}

// NewPipeline wires the four stages into a Pipeline.
func NewPipeline(extractor *Extractor, mapper *Mapper, selector *Selector, explainer *Explainer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor:      extractor,
		mapper:         mapper,
		selector:       selector,
		explainer:      explainer,
		observer:       nopObserver{},
		logger:         logging.Logger(),
		persistTimeout: DefaultPersistTimeout,
		maxUploadBytes: domain.MaxUploadBytes,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Genres returns the genre identifiers the pipeline accepts.
func (p *Pipeline) Genres() []string {
	return p.selector.Genres().IDs()
}

// run tracks the state machine of a single request.
type run struct {
	id      string
	state   domain.State
	entered time.Time
	p       *Pipeline
	logger  zerolog.Logger
}

func (r *run) advance(to domain.State) {
	if !domain.CanTransition(r.state, to) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.state, to))
	}
	now := r.p.now()
	r.p.observer.Transition(r.id, r.state, to, now.Sub(r.entered))
	r.logger.Debug().Str("stage", to.String()).Msg("pipeline transition")
	r.state, r.entered = to, now
}

func (r *run) fail(err error) error {
	stage := r.state
	kind := domain.KindOf(err)
	if kind == nil {
		kind = fallbackKind(stage)
	}
	serr := domain.NewStageError(stage, kind, err)
	r.advance(domain.StateFailed)
	r.logger.Warn().
		Err(err).
		Str("stage", stage.String()).
		Str("kind", domain.KindName(serr)).
		Msg("recommendation run failed")
	r.p.observer.Finished(r.id, serr)
	return serr
}

func fallbackKind(stage domain.State) error {
	switch stage {
	case domain.StateExtracting:
		return domain.ErrExtraction
	case domain.StateSelecting:
		return domain.ErrProvider
	default:
		return domain.ErrInvalidInput
	}
}

// Run executes one recommendation request. On failure it returns a
// *domain.StageError and no partial Recommendation.
func (p *Pipeline) Run(ctx context.Context, req domain.RecommendationRequest) (domain.Recommendation, error) {
	r := &run{
		id:      p.newID(),
		state:   domain.StateIdle,
		entered: p.now(),
		p:       p,
	}
	r.logger = logging.FromContext(ctx, p.logger).With().
		Str("recommendation_id", r.id).
		Str("user_id", req.User.ID).
		Logger()

	genres, err := p.validate(req)
	if err != nil {
		return domain.Recommendation{}, r.fail(err)
	}

	r.advance(domain.StateExtracting)
	var analysis Analysis
	if req.ImageRef != "" {
		analysis.Reference = req.ImageRef
		analysis.Features, err = p.extractor.ExtractReference(ctx, req.ImageRef)
	} else {
		req.Image.UserID = req.User.ID
		analysis, err = p.extractor.Analyze(ctx, req.Image)
	}
	if err != nil {
		return domain.Recommendation{}, r.fail(err)
	}

	r.advance(domain.StateMapping)
	profile := p.mapper.Map(analysis.Features)

	r.advance(domain.StateSelecting)
	track, err := p.selector.Select(ctx, profile, genres)
	if err != nil {
		return domain.Recommendation{}, r.fail(err)
	}

	r.advance(domain.StateExplaining)
	explanation := p.explainer.Explain(analysis.Features, track)

	rec := domain.Recommendation{
		ID:             r.id,
		TrackCandidate: track,
		Explanation:    explanation,
		ImageFeatures:  analysis.Features,
		Profile:        profile,
		Genres:         genres,
		ImageRef:       analysis.Reference,
		CreatedAt:      p.now().UTC(),
	}
	r.advance(domain.StateDone)
	p.observer.Finished(r.id, nil)
	r.logger.Info().
		Strs("genres", genres).
		Str("track_id", track.ID).
		Msg("recommendation ready")

	p.persist(ctx, r, req.User, rec)
	return rec, nil
}

// validate checks the request before any collaborator is called and returns
// the accepted genre seeds.
func (p *Pipeline) validate(req domain.RecommendationRequest) ([]string, error) {
	if !req.User.Authenticated() {
		return nil, fmt.Errorf("pipeline: no authenticated user: %w", domain.ErrUnauthenticated)
	}
	if req.ImageRef != "" && !domain.ImageRefOwnedBy(req.ImageRef, req.User.ID) {
		return nil, fmt.Errorf("pipeline: image %q is not owned by the caller: %w", req.ImageRef, domain.ErrInvalidInput)
	}
	if req.ImageRef == "" {
		size := int64(len(req.Image.Data))
		if size == 0 {
			return nil, fmt.Errorf("pipeline: no image supplied: %w", domain.ErrInvalidInput)
		}
		if size > p.maxUploadBytes {
			return nil, fmt.Errorf("pipeline: image is %d bytes, limit %d: %w", size, p.maxUploadBytes, domain.ErrInvalidInput)
		}
	}
	return p.selector.ValidateGenres(req.Genres)
}

// persist hands rec to the sink. Failures are logged and reported but never
// change what the caller receives.
func (p *Pipeline) persist(ctx context.Context, r *run, user domain.User, rec domain.Recommendation) {
	if p.sink == nil {
		return
	}
	_, err := await(context.WithoutCancel(ctx), p.persistTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.sink.SaveRecommendation(ctx, user, rec)
	})
	if err != nil {
		err = fmt.Errorf("pipeline: save recommendation: %w: %w", domain.ErrPersistence, err)
		r.logger.Error().
			Err(err).
			Str("kind", domain.KindName(err)).
			Msg("failed to persist recommendation")
		p.observer.PersistenceFailed(r.id, err)
		return
	}

	if p.previews != nil && rec.PreviewURL != "" {
		p.previews.Submit(domain.PreviewJob{RecommendationID: rec.ID, PreviewURL: rec.PreviewURL})
	}
}
