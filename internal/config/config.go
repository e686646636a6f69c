// Package config loads service configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Spotify    SpotifyConfig    `koanf:"spotify"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Mapping    MappingConfig    `koanf:"mapping"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Storage    StorageConfig    `koanf:"storage"`
	Auth       AuthConfig       `koanf:"auth"`
	Worker     WorkerConfig     `koanf:"worker"`
	Sentry     SentryConfig     `koanf:"sentry"`
}

type ServerConfig struct {
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	MaxUploadBytes    int64         `koanf:"max_upload_bytes" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type SpotifyConfig struct {
	ClientID       string        `koanf:"client_id" validate:"required"`
	ClientSecret   string        `koanf:"client_secret" validate:"required"`
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	TokenURL       string        `koanf:"token_url" validate:"required,url"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries     int           `koanf:"max_retries" validate:"min=1,max=10"`
	RetryBackoffMS int           `koanf:"retry_backoff_ms" validate:"min=0"`
	BreakerTrips   uint32        `koanf:"breaker_trips" validate:"min=1"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	SyncGenreSeeds bool          `koanf:"sync_genre_seeds"`
}

// RetryBackoff is the base backoff between Spotify retries.
func (s SpotifyConfig) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffMS) * time.Millisecond
}

type EmbeddingConfig struct {
	Provider string       `koanf:"provider" validate:"oneof=gemini ollama"`
	Gemini   GeminiConfig `koanf:"gemini"`
	Ollama   OllamaConfig `koanf:"ollama"`
}

type GeminiConfig struct {
	APIKey      string `koanf:"api_key"`
	Model       string `koanf:"model"`
	VisionModel string `koanf:"vision_model"`
	Dimensions  int32  `koanf:"dimensions" validate:"gte=0"`
}

type OllamaConfig struct {
	Host        string        `koanf:"host"`
	VisionModel string        `koanf:"vision_model"`
	EmbedModel  string        `koanf:"embed_model"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ExtractionConfig sets the zero-shot classifier thresholds per category.
type ExtractionConfig struct {
	TaxonomyPath    string  `koanf:"taxonomy_path"`
	ColorThreshold  float64 `koanf:"color_threshold" validate:"gte=-1,lte=1"`
	ObjectThreshold float64 `koanf:"object_threshold" validate:"gte=-1,lte=1"`
	MoodThreshold   float64 `koanf:"mood_threshold" validate:"gte=-1,lte=1"`
	SceneThreshold  float64 `koanf:"scene_threshold" validate:"gte=-1,lte=1"`
	MaxColors       int     `koanf:"max_colors" validate:"gte=0"`
	MaxObjects      int     `koanf:"max_objects" validate:"gte=0"`
	MaxMoods        int     `koanf:"max_moods" validate:"gte=0"`
}

type MappingConfig struct {
	ColorWeight  float64 `koanf:"color_weight" validate:"gte=0"`
	MoodWeight   float64 `koanf:"mood_weight" validate:"gte=0"`
	ObjectWeight float64 `koanf:"object_weight" validate:"gte=0"`
	SceneWeight  float64 `koanf:"scene_weight" validate:"gte=0"`
	TempoDefault float64 `koanf:"tempo_default" validate:"gte=40,lte=300"`
}

type PipelineConfig struct {
	EmbeddingTimeout time.Duration `koanf:"embedding_timeout" validate:"gt=0"`
	CatalogTimeout   time.Duration `koanf:"catalog_timeout" validate:"gt=0"`
	PersistTimeout   time.Duration `koanf:"persist_timeout" validate:"gt=0"`
	Genres           []string      `koanf:"genres" validate:"min=1,dive,required"`
	MaxSeedGenres    int           `koanf:"max_seed_genres" validate:"min=1,max=5"`
	CandidateLimit   int           `koanf:"candidate_limit" validate:"min=1,max=100"`
}

type StorageConfig struct {
	Driver     string `koanf:"driver" validate:"oneof=sqlite"`
	SQLitePath string `koanf:"sqlite_path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required,min=16"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
}

type WorkerConfig struct {
	Workers        int           `koanf:"workers" validate:"min=0"`
	QueueSize      int           `koanf:"queue_size" validate:"min=1"`
	PreviewTimeout time.Duration `koanf:"preview_timeout" validate:"gt=0"`
}

type SentryConfig struct {
	DSN              string  `koanf:"dsn"`
	Environment      string  `koanf:"environment"`
	Release          string  `koanf:"release"`
	TracesSampleRate float64 `koanf:"traces_sample_rate" validate:"gte=0,lte=1"`
}
