// Package worker runs background preview analysis for stored recommendations.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/observability"
)

// Pool manages background workers for preview analysis jobs.
type Pool struct {
	store    ports.PreviewEnergyStore
	analyzer Analyzer
	workers  int
	timeout  time.Duration
	logger   zerolog.Logger

	jobs   chan domain.PreviewJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var _ ports.PreviewQueue = (*Pool)(nil)

// Option configures a Pool.
type Option func(*Pool)

// WithJobTimeout bounds each analysis plus store update.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(store ports.PreviewEnergyStore, analyzer Analyzer, workers int, queueSize int, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		store:    store,
		analyzer: analyzer,
		workers:  workers,
		timeout:  defaultPreviewTimeout,
		logger:   zerolog.Nop(),
		jobs:     make(chan domain.PreviewJob, queueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking. A full or stopped queue drops it.
func (p *Pool) Submit(job domain.PreviewJob) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		observability.PreviewJobs.WithLabelValues("dropped").Inc()
		p.logger.Warn().Str("recommendation_id", job.RecommendationID).Msg("worker stopped, dropping preview job")
		return
	}
	select {
	case p.jobs <- job:
		observability.PreviewJobs.WithLabelValues("queued").Inc()
	default:
		observability.PreviewJobs.WithLabelValues("dropped").Inc()
		p.logger.Warn().Str("recommendation_id", job.RecommendationID).Msg("preview queue full, dropping job")
	}
}

func (p *Pool) processJob(job domain.PreviewJob) {
	log := p.logger.With().Str("recommendation_id", job.RecommendationID).Logger()
	if job.PreviewURL == "" {
		observability.PreviewJobs.WithLabelValues("skipped").Inc()
		log.Debug().Msg("no preview url, skipping analysis")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	energy, err := p.analyzer.Analyze(ctx, job.PreviewURL)
	if err != nil {
		observability.PreviewJobs.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("preview analysis failed")
		return
	}
	if err := p.store.UpdatePreviewEnergy(ctx, job.RecommendationID, energy); err != nil {
		observability.PreviewJobs.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("failed to store preview energy")
		return
	}
	observability.PreviewJobs.WithLabelValues("stored").Inc()
	log.Info().Float64("preview_energy", energy).Msg("preview analyzed")
}
