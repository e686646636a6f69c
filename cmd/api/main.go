package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/adapters/gemini"
	"github.com/ewilliams-labs/vibelens/internal/adapters/identity"
	"github.com/ewilliams-labs/vibelens/internal/adapters/ollama"
	"github.com/ewilliams-labs/vibelens/internal/adapters/rest"
	"github.com/ewilliams-labs/vibelens/internal/adapters/spotify"
	"github.com/ewilliams-labs/vibelens/internal/adapters/sqlite"
	"github.com/ewilliams-labs/vibelens/internal/config"
	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/core/services"
	"github.com/ewilliams-labs/vibelens/internal/logging"
	"github.com/ewilliams-labs/vibelens/internal/observability"
	"github.com/ewilliams-labs/vibelens/internal/worker"
)

const startupTimeout = time.Minute

func main() {
	// .env is optional; real environment variables win.
	envErr := godotenv.Load()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logger := logging.Logger()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("could not read .env file")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("vibelens exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// 2. Error reporting
	sentryEnabled, err := observability.InitSentry(observability.SentryOptions{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	var hub *sentry.Hub
	if sentryEnabled {
		hub = sentry.CurrentHub()
		defer observability.Flush()
	}

	// 3. Initialize "Driven" Adapters (The Tools)
	// -- Database Adapter
	var store *sqlite.Adapter
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err = sqlite.NewAdapter(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	defer store.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	// -- Embedding Adapter
	embedder, err := newEmbedder(startupCtx, cfg, logger)
	if err != nil {
		return err
	}

	// -- Spotify Adapter
	catalog := spotify.NewClient(spotify.Config{
		ClientID:       cfg.Spotify.ClientID,
		ClientSecret:   cfg.Spotify.ClientSecret,
		BaseURL:        cfg.Spotify.BaseURL,
		TokenURL:       cfg.Spotify.TokenURL,
		Timeout:        cfg.Spotify.Timeout,
		MaxRetries:     cfg.Spotify.MaxRetries,
		RetryBackoff:   cfg.Spotify.RetryBackoff(),
		BreakerTrips:   cfg.Spotify.BreakerTrips,
		BreakerTimeout: cfg.Spotify.BreakerTimeout,
	}, spotify.WithLogger(logging.WithComponent("spotify")))

	genres := domain.NewGenreSet(cfg.Pipeline.Genres)
	if cfg.Spotify.SyncGenreSeeds {
		genres = syncGenres(startupCtx, catalog, genres, logger)
	}

	// -- Identity Adapter
	verifier, err := identity.NewVerifier(identity.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   30 * time.Second,
	})
	if err != nil {
		return err
	}

	// 4. Initialize Core Logic (The Driver)
	taxonomy, err := config.LoadTaxonomy(cfg.Extraction.TaxonomyPath)
	if err != nil {
		return err
	}
	classifiers, err := services.BuildClassifiers(startupCtx, embedder, taxonomy, services.ClassifierConfig{
		Colors:  services.CategoryConfig{Threshold: cfg.Extraction.ColorThreshold, MaxLabels: cfg.Extraction.MaxColors},
		Objects: services.CategoryConfig{Threshold: cfg.Extraction.ObjectThreshold, MaxLabels: cfg.Extraction.MaxObjects},
		Mood:    services.CategoryConfig{Threshold: cfg.Extraction.MoodThreshold, MaxLabels: cfg.Extraction.MaxMoods},
		Scene:   services.CategoryConfig{Threshold: cfg.Extraction.SceneThreshold, MaxLabels: 1},
	})
	if err != nil {
		return fmt.Errorf("build classifiers: %w", err)
	}
	cancelStartup()

	extractor := services.NewExtractor(embedder, store, classifiers,
		services.WithEmbeddingTimeout(cfg.Pipeline.EmbeddingTimeout),
		services.WithImageLoader(store),
		services.WithExtractorLogger(logging.WithComponent("extractor")),
	)
	mapper := services.NewMapper(services.MapperConfig{
		ColorWeight:  cfg.Mapping.ColorWeight,
		MoodWeight:   cfg.Mapping.MoodWeight,
		ObjectWeight: cfg.Mapping.ObjectWeight,
		SceneWeight:  cfg.Mapping.SceneWeight,
		TempoDefault: cfg.Mapping.TempoDefault,
	})
	selector := services.NewSelector(catalog, genres,
		services.WithCatalogTimeout(cfg.Pipeline.CatalogTimeout),
		services.WithMaxSeedGenres(cfg.Pipeline.MaxSeedGenres),
		services.WithCandidateLimit(cfg.Pipeline.CandidateLimit),
		services.WithSelectorLogger(logging.WithComponent("selector")),
	)

	pipelineOpts := []services.PipelineOption{
		services.WithSink(store),
		services.WithObserver(observability.NewPipelineRecorder(hub)),
		services.WithLogger(logging.WithComponent("pipeline")),
		services.WithPersistTimeout(cfg.Pipeline.PersistTimeout),
		services.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	}

	// -- Preview worker
	if cfg.Worker.Workers > 0 {
		pool := worker.NewPool(store, worker.NewPreviewAnalyzer(nil), cfg.Worker.Workers, cfg.Worker.QueueSize,
			worker.WithJobTimeout(cfg.Worker.PreviewTimeout),
			worker.WithLogger(logging.WithComponent("worker")),
		)
		pool.Start()
		defer pool.Stop()
		pipelineOpts = append(pipelineOpts, services.WithPreviewQueue(pool))
	}

	pipeline := services.NewPipeline(extractor, mapper, selector, services.NewExplainer(mapper), pipelineOpts...)

	// 5. Initialize "Driving" Adapter (The Interface)
	handler := rest.NewHandler(pipeline, store, verifier,
		rest.WithLogger(logging.WithComponent("http")),
		rest.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		rest.WithCORSOrigins(cfg.Server.CORSOrigins),
		rest.WithRateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow),
		rest.WithReadinessCheck(store.Ping),
	)

	// 6. Start the Server
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("embedding", cfg.Embedding.Provider).
			Strs("genres", genres.IDs()).
			Msg("VibeLens API is running")
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
	return nil
}

func newEmbedder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Embedding.Gemini.APIKey,
			EmbedModel:  cfg.Embedding.Gemini.Model,
			VisionModel: cfg.Embedding.Gemini.VisionModel,
			Dimensions:  cfg.Embedding.Gemini.Dimensions,
		}, logging.WithComponent("gemini"))
		if err != nil {
			return nil, err
		}
		return client, nil
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL:     cfg.Embedding.Ollama.Host,
			VisionModel: cfg.Embedding.Ollama.VisionModel,
			EmbedModel:  cfg.Embedding.Ollama.EmbedModel,
			Timeout:     cfg.Embedding.Ollama.Timeout,
		}, logging.WithComponent("ollama")), nil
	default:
		logger.Error().Str("provider", cfg.Embedding.Provider).Msg("unknown embedding provider")
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}

// syncGenres narrows the configured genres to the seeds Spotify accepts.
// On failure, or when nothing overlaps, the configured set is kept.
func syncGenres(ctx context.Context, catalog ports.CatalogProvider, configured domain.GenreSet, logger zerolog.Logger) domain.GenreSet {
	available, err := catalog.AvailableGenres(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not fetch spotify genre seeds, keeping configured genres")
		return configured
	}
	synced := configured.Intersect(available)
	if synced.Len() == 0 {
		logger.Warn().Strs("configured", configured.IDs()).Msg("no configured genre is a spotify seed, keeping configured genres")
		return configured
	}
	if dropped := configured.Len() - synced.Len(); dropped > 0 {
		logger.Warn().Int("dropped", dropped).Strs("genres", synced.IDs()).Msg("genres narrowed to spotify seeds")
	}
	return synced
}
