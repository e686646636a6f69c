// Package gemini implements the embedder port on Google's Gemini API.
//
// Images are first described by a vision model and the description is then
// embedded, so image and label vectors share the text embedding space.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
)

const (
	taskImage = "RETRIEVAL_QUERY"
	taskLabel = "RETRIEVAL_DOCUMENT"
	userRole  = "user"

	captionPrompt = "Describe this photo for music matching. List its dominant colors, " +
		"the main objects, the mood it conveys and the kind of setting, in one short paragraph."
)

// models is the subset of *genai.Models the adapter calls.
type models interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config selects the Gemini models.
type Config struct {
	APIKey      string
	EmbedModel  string
	VisionModel string
	// Dimensions truncates embeddings when positive.
	Dimensions int32
}

// Client is an Embedder backed by Gemini.
type Client struct {
	models      models
	embedModel  string
	visionModel string
	dimensions  int32
	logger      zerolog.Logger
}

var _ ports.Embedder = (*Client)(nil)

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newClient(client.Models, cfg, logger), nil
}

func newClient(m models, cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		models:      m,
		embedModel:  cfg.EmbedModel,
		visionModel: cfg.VisionModel,
		dimensions:  cfg.Dimensions,
		logger:      logger,
	}
}

// EmbedImage captions the image with the vision model and embeds the caption.
func (c *Client) EmbedImage(ctx context.Context, img domain.ImageInput) ([]float32, error) {
	if len(img.Data) == 0 {
		return nil, errors.New("gemini: empty image")
	}

	contents := []*genai.Content{{
		Role: userRole,
		Parts: []*genai.Part{
			{Text: captionPrompt},
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		},
	}}
	resp, err := c.models.GenerateContent(ctx, c.visionModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini caption request failed: %w", err)
	}
	caption := responseText(resp)
	if caption == "" {
		return nil, errors.New("gemini: vision model returned no description")
	}
	c.logger.Debug().
		Str("image_ref", img.Reference).
		Int("caption_len", len(caption)).
		Msg("image captioned")

	return c.embed(ctx, caption, taskImage)
}

// EmbedText embeds a label prompt.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("gemini: empty text")
	}
	return c.embed(ctx, text, taskLabel)
}

func (c *Client) embed(ctx context.Context, text, task string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: task}
	if c.dimensions > 0 {
		dims := c.dimensions
		cfg.OutputDimensionality = &dims
	}

	resp, err := c.models.EmbedContent(ctx, c.embedModel, []*genai.Content{{
		Role:  userRole,
		Parts: []*genai.Part{{Text: text}},
	}}, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed request failed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini: empty embedding in response")
	}
	return resp.Embeddings[0].Values, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
