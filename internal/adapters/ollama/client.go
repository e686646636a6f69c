// Package ollama provides an embedder adapter for a local Ollama instance.
// Images are captioned by a vision model over /api/chat and the caption is
// embedded through /api/embed.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultVisionModel = "llava"
	defaultEmbedModel  = "nomic-embed-text"
	defaultTimeout     = 30 * time.Second
)

const captionPrompt = "Describe this photo for music matching. Name the dominant colors, the main objects, " +
	"the mood it conveys and the kind of setting. Answer with one short paragraph and no preamble."

// Config selects the Ollama host and models.
type Config struct {
	BaseURL     string
	VisionModel string
	EmbedModel  string
	Timeout     time.Duration
}

// Client is an Embedder backed by a local Ollama server.
type Client struct {
	baseURL     string
	visionModel string
	embedModel  string
	httpClient  *http.Client
	logger      zerolog.Logger
}

var _ ports.Embedder = (*Client)(nil)

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewClient creates an Ollama client. Empty config fields fall back to a
// localhost server, llava, nomic-embed-text and a 30s timeout.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:     baseURL,
		visionModel: cfg.VisionModel,
		embedModel:  cfg.EmbedModel,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// EmbedImage captions the image and embeds the caption.
func (c *Client) EmbedImage(ctx context.Context, img domain.ImageInput) ([]float32, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("ollama: empty image")
	}
	caption, err := c.Caption(ctx, img.Data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("image_ref", img.Reference).
		Int("caption_len", len(caption)).
		Msg("image captioned")
	return c.EmbedText(ctx, caption)
}

// Caption asks the vision model to describe the image.
func (c *Client) Caption(ctx context.Context, image []byte) (string, error) {
	payload := chatRequest{
		Model:  c.visionModel,
		Stream: false,
		Messages: []chatMessage{
			{Role: "user", Content: captionPrompt, Images: []string{base64.StdEncoding.EncodeToString(image)}},
		},
	}

	var parsed chatResponse
	if err := c.postJSON(ctx, "/api/chat", payload, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	caption := strings.TrimSpace(parsed.Message.Content)
	if caption == "" {
		return "", fmt.Errorf("ollama: empty response")
	}
	return caption, nil
}

// EmbedText returns the embedding of text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("ollama: empty text")
	}

	var parsed embedResponse
	if err := c.postJSON(ctx, "/api/embed", embedRequest{Model: c.embedModel, Input: text}, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("ollama: %s", parsed.Error)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama: empty embedding")
	}
	return parsed.Embeddings[0], nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("ollama request rejected")
		return fmt.Errorf("ollama: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}
