// Package rest exposes the recommendation pipeline over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/logging"
)

const readyTimeout = 5 * time.Second

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Run(ctx context.Context, req domain.RecommendationRequest) (domain.Recommendation, error)
	Genres() []string
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      Recommender
	history  ports.RecommendationRepository
	identity ports.IdentityProvider
	router   *http.ServeMux // Standard library router
	chain    http.Handler

	logger         zerolog.Logger
	maxUploadBytes int64
	corsOrigins    []string
	rateRequests   int
	rateWindow     time.Duration
	metrics        http.Handler
	ready          func(context.Context) error
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger fallback.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithMaxUploadBytes caps the accepted image size.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins. The default allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) {
		if len(origins) > 0 {
			h.corsOrigins = origins
		}
	}
}

// WithRateLimit allows requests per window per client IP. Zero disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(h *Handler) {
		h.rateRequests = requests
		h.rateWindow = window
	}
}

// WithMetricsHandler replaces the Prometheus handler served on /metrics.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithReadinessCheck makes GET /ready report check's result.
func WithReadinessCheck(check func(context.Context) error) Option {
	return func(h *Handler) { h.ready = check }
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc Recommender, history ports.RecommendationRepository, identity ports.IdentityProvider, opts ...Option) *Handler {
	h := &Handler{
		svc:            svc,
		history:        history,
		identity:       identity,
		router:         http.NewServeMux(),
		logger:         zerolog.Nop(),
		maxUploadBytes: domain.MaxUploadBytes,
		corsOrigins:    []string{"*"},
		metrics:        promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(h)
	}

	// Register Routes
	h.routes()
	h.chain = h.middleware(h.router)

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("GET /ready", h.ReadyCheck)
	h.router.Handle("GET /metrics", h.metrics)

	h.router.HandleFunc("GET /genres", h.ListGenres)

	// Recommendations
	h.router.HandleFunc("POST /recommendations", h.authenticated(h.CreateRecommendation))
	h.router.HandleFunc("GET /recommendations", h.authenticated(h.ListRecommendations))
	h.router.HandleFunc("GET /recommendations/{id}", h.authenticated(h.GetRecommendation))
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "VibeLens is live"})
}

// ReadyCheck reports whether the backing store is reachable.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			log := logging.FromContext(r.Context(), h.logger)
			log.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
