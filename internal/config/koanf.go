package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vibelens/config.yaml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
			MaxUploadBytes:    domain.MaxUploadBytes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Spotify: SpotifyConfig{
			BaseURL:        "https://api.spotify.com/v1",
			TokenURL:       "https://accounts.spotify.com/api/token",
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RetryBackoffMS: 500,
			BreakerTrips:   5,
			BreakerTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider: "gemini",
			Gemini: GeminiConfig{
				Model:       "gemini-embedding-001",
				VisionModel: "gemini-2.5-flash",
				Dimensions:  768,
			},
			Ollama: OllamaConfig{
				Host:        "http://localhost:11434",
				VisionModel: "llava",
				EmbedModel:  "nomic-embed-text",
				Timeout:     30 * time.Second,
			},
		},
		Extraction: ExtractionConfig{
			ColorThreshold:  0.20,
			ObjectThreshold: 0.22,
			MoodThreshold:   0.20,
			SceneThreshold:  0.20,
			MaxColors:       3,
			MaxObjects:      5,
			MaxMoods:        3,
		},
		Mapping: MappingConfig{
			ColorWeight:  1,
			MoodWeight:   1,
			ObjectWeight: 1,
			SceneWeight:  1,
			TempoDefault: domain.DefaultTempo,
		},
		Pipeline: PipelineConfig{
			EmbeddingTimeout: 10 * time.Second,
			CatalogTimeout:   10 * time.Second,
			PersistTimeout:   5 * time.Second,
			Genres:           append([]string(nil), domain.DefaultGenres...),
			MaxSeedGenres:    5,
			CandidateLimit:   1,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "vibelens.db",
		},
		Worker: WorkerConfig{
			Workers:        2,
			QueueSize:      100,
			PreviewTimeout: 15 * time.Second,
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
	}
}

// Load builds the configuration: struct defaults, then the YAML file, then
// environment variables, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"pipeline.genres",
}

// processSliceFields splits comma-separated strings coming from the environment.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings keeps the historical variable names working.
var envMappings = map[string]string{
	"port":                     "server.port",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"spotify_client_id":        "spotify.client_id",
	"spotify_client_secret":    "spotify.client_secret",
	"spotify_max_retries":      "spotify.max_retries",
	"spotify_retry_backoff_ms": "spotify.retry_backoff_ms",
	"storage_driver":           "storage.driver",
	"sqlite_path":              "storage.sqlite_path",
	"gemini_api_key":           "embedding.gemini.api_key",
	"gemini_embedding_model":   "embedding.gemini.model",
	"gemini_vision_model":      "embedding.gemini.vision_model",
	"ollama_host":              "embedding.ollama.host",
	"ollama_vision_model":      "embedding.ollama.vision_model",
	"ollama_embed_model":       "embedding.ollama.embed_model",
	"jwt_secret":               "auth.jwt_secret",
	"sentry_dsn":               "sentry.dsn",
}

var envSections = []string{
	"server", "logging", "spotify", "embedding", "extraction", "mapping",
	"pipeline", "storage", "auth", "worker", "sentry",
}

// envTransformFunc maps an environment variable to a koanf key. SECTION_KEY
// becomes section.key; anything else is ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}
