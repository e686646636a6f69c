package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.Spotify.ClientID)
	assert.Equal(t, 3, cfg.Spotify.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Spotify.RetryBackoff())
	assert.Equal(t, "gemini", cfg.Embedding.Provider)
	assert.Equal(t, domain.DefaultGenres, cfg.Pipeline.Genres)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.EmbeddingTimeout)
	assert.Equal(t, int64(domain.MaxUploadBytes), cfg.Server.MaxUploadBytes)
	assert.Equal(t, domain.DefaultTempo, cfg.Mapping.TempoDefault)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPOTIFY_MAX_RETRIES", "5")
	t.Setenv("SPOTIFY_RETRY_BACKOFF_MS", "250")
	t.Setenv("PIPELINE_GENRES", "rock, jazz ,")
	t.Setenv("PIPELINE_CATALOG_TIMEOUT", "3s")
	t.Setenv("MAPPING_MOOD_WEIGHT", "2.5")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Spotify.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Spotify.RetryBackoff())
	assert.Equal(t, []string{"rock", "jazz"}, cfg.Pipeline.Genres)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.CatalogTimeout)
	assert.Equal(t, 2.5, cfg.Mapping.MoodWeight)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "http://ollama:11434", cfg.Embedding.Ollama.Host)
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  provider: ollama
mapping:
  tempo_default: 100
pipeline:
  genres: [pop, folk]
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 100.0, cfg.Mapping.TempoDefault)
	assert.Equal(t, []string{"pop", "folk"}, cfg.Pipeline.Genres)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing spotify credentials",
			env:     map[string]string{"SPOTIFY_CLIENT_ID": ""},
			wantErr: "spotify.client_id is required",
		},
		{
			name:    "unknown embedding provider",
			env:     map[string]string{"EMBEDDING_PROVIDER": "openai"},
			wantErr: "embedding.provider must be one of",
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"GEMINI_API_KEY": ""},
			wantErr: "embedding.gemini.api_key is required",
		},
		{
			name:    "tempo out of range",
			env:     map[string]string{"MAPPING_TEMPO_DEFAULT": "500"},
			wantErr: "mapping.tempo_default must be at most 300",
		},
		{
			name:    "unsupported storage driver",
			env:     map[string]string{"STORAGE_DRIVER": "postgres"},
			wantErr: "storage.driver must be one of",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"LOG_LEVEL": "loud"},
			wantErr: "logging.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"SPOTIFY_CLIENT_ID":          "spotify.client_id",
		"SPOTIFY_RETRY_BACKOFF_MS":   "spotify.retry_backoff_ms",
		"STORAGE_DRIVER":             "storage.driver",
		"OLLAMA_HOST":                "embedding.ollama.host",
		"PIPELINE_EMBEDDING_TIMEOUT": "pipeline.embedding_timeout",
		"WORKER_QUEUE_SIZE":          "worker.queue_size",
		"HOME":                       "",
		"SERVER_":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransformFunc(in), "env %s", in)
	}
}

func TestLoadTaxonomy_Default(t *testing.T) {
	tax, err := LoadTaxonomy("")
	require.NoError(t, err)

	for _, c := range domain.Categories {
		assert.NotEmpty(t, tax.Labels(c), "category %s", c)
	}
	assert.Equal(t, "warm", tax.Colors[0].Name)
	assert.NotEmpty(t, tax.Colors[0].Prompt)
}

func TestParseTaxonomy_Rejects(t *testing.T) {
	_, err := ParseTaxonomy([]byte("colors: [{name: warm}]\nobjects: [{name: dog}]\nmood: [{name: calm}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene")

	_, err = ParseTaxonomy([]byte("colors: [{name: warm}, {name: Warm}]\nobjects: [{name: dog}]\nmood: [{name: calm}]\nscene: [{name: indoor}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeats")

	_, err = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
