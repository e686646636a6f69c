package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/logging"
)

// DefaultEmbeddingTimeout bounds one embedding call.
const DefaultEmbeddingTimeout = 10 * time.Second

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Analysis is the result of extracting one image: where it was stored and what it shows.
type Analysis struct {
	Reference string
	Features  domain.ImageFeatures
}

// Extractor turns an image into ImageFeatures using an injected Embedder and
// a fixed set of zero-shot classifiers.
type Extractor struct {
	embedder    ports.Embedder
	store       ports.ImageStore
	loader      ports.ImageLoader
	classifiers *ClassifierSet
	timeout     time.Duration
	logger      zerolog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithEmbeddingTimeout overrides DefaultEmbeddingTimeout.
func WithEmbeddingTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithImageLoader enables ExtractReference.
func WithImageLoader(l ports.ImageLoader) ExtractorOption {
	return func(e *Extractor) { e.loader = l }
}

// WithExtractorLogger sets the logger used for extraction diagnostics.
func WithExtractorLogger(l zerolog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor constructs an Extractor.
func NewExtractor(embedder ports.Embedder, store ports.ImageStore, classifiers *ClassifierSet, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		embedder:    embedder,
		store:       store,
		classifiers: classifiers,
		timeout:     DefaultEmbeddingTimeout,
		logger:      logging.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract stores the upload and returns its features.
func (e *Extractor) Extract(ctx context.Context, upload domain.ImageUpload) (domain.ImageFeatures, error) {
	a, err := e.Analyze(ctx, upload)
	return a.Features, err
}

// Analyze validates, stores and classifies the upload.
func (e *Extractor) Analyze(ctx context.Context, upload domain.ImageUpload) (Analysis, error) {
	mime, err := sniffImage(upload.Data, upload.MIMEType)
	if err != nil {
		return Analysis{}, err
	}
	upload.MIMEType = mime

	ref, err := e.store.StoreImage(ctx, upload)
	if err != nil {
		return Analysis{}, fmt.Errorf("extractor: store image: %w: %w", domain.ErrExtraction, err)
	}

	features, err := e.classify(ctx, domain.ImageInput{Reference: ref, MIMEType: mime, Data: upload.Data})
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Reference: ref, Features: features}, nil
}

// ExtractReference classifies an image that was already stored.
func (e *Extractor) ExtractReference(ctx context.Context, ref string) (domain.ImageFeatures, error) {
	if e.loader == nil {
		return domain.ImageFeatures{}, fmt.Errorf("extractor: no image loader configured: %w", domain.ErrInvalidInput)
	}
	img, err := e.loader.LoadImage(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ImageFeatures{}, fmt.Errorf("extractor: image %q: %w: %w", ref, domain.ErrInvalidInput, err)
	}
	if err != nil {
		return domain.ImageFeatures{}, fmt.Errorf("extractor: load image %q: %w: %w", ref, domain.ErrExtraction, err)
	}
	mime, err := sniffImage(img.Data, img.MIMEType)
	if err != nil {
		return domain.ImageFeatures{}, err
	}
	img.MIMEType = mime
	return e.classify(ctx, img)
}

func (e *Extractor) classify(ctx context.Context, img domain.ImageInput) (domain.ImageFeatures, error) {
	vec, err := await(ctx, e.timeout, func(ctx context.Context) ([]float32, error) {
		return e.embedder.EmbedImage(ctx, img)
	})
	switch {
	case isStageTimeout(err):
		return domain.ImageFeatures{}, fmt.Errorf("extractor: embed image after %s: %w", e.timeout, domain.ErrExtractionTimeout)
	case errors.Is(err, domain.ErrCanceled):
		return domain.ImageFeatures{}, err
	case err != nil:
		return domain.ImageFeatures{}, fmt.Errorf("extractor: embed image: %w: %w", domain.ErrExtraction, err)
	case len(vec) == 0:
		return domain.ImageFeatures{}, fmt.Errorf("extractor: embedder returned an empty vector: %w", domain.ErrExtraction)
	}

	features, err := e.classifiers.Classify(vec)
	if err != nil {
		return domain.ImageFeatures{}, fmt.Errorf("extractor: classify: %w: %w", domain.ErrExtraction, err)
	}
	if features.IsEmpty() {
		e.logger.Debug().Str("image_ref", img.Reference).Msg("no feature cleared its threshold")
	}
	return features, nil
}

// sniffImage checks the bytes decode as a supported image and returns the
// detected MIME type.
func sniffImage(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("extractor: empty image: %w", domain.ErrInvalidInput)
	}
	mime := http.DetectContentType(data)
	if !supportedImageTypes[mime] {
		declared = strings.ToLower(strings.TrimSpace(declared))
		return "", fmt.Errorf("extractor: unsupported image type %q (declared %q): %w", mime, declared, domain.ErrExtraction)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("extractor: decode image: %w: %w", domain.ErrExtraction, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("extractor: image has no pixels: %w", domain.ErrExtraction)
	}
	return mime, nil
}
