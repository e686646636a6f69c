package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
)

// ErrDimensionMismatch is returned when an embedding does not match the prototype space.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Prototype is the reference vector for one taxonomy label.
type Prototype struct {
	Label  string
	Vector []float32
}

// Score is a label with its cosine similarity to an image embedding.
type Score struct {
	Label string
	Score float64
}

// CategoryConfig bounds what a classifier may emit.
type CategoryConfig struct {
	Threshold float64
	MaxLabels int
}

// ClassifierConfig holds one CategoryConfig per feature category.
type ClassifierConfig struct {
	Colors  CategoryConfig
	Objects CategoryConfig
	Mood    CategoryConfig
	Scene   CategoryConfig
}

// DefaultClassifierConfig returns thresholds tuned for normalized multimodal embeddings.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Colors:  CategoryConfig{Threshold: 0.20, MaxLabels: 3},
		Objects: CategoryConfig{Threshold: 0.22, MaxLabels: 5},
		Mood:    CategoryConfig{Threshold: 0.20, MaxLabels: 3},
		Scene:   CategoryConfig{Threshold: 0.20, MaxLabels: 1},
	}
}

// For returns the config of category c.
func (c ClassifierConfig) For(cat domain.Category) CategoryConfig {
	switch cat {
	case domain.CategoryColors:
		return c.Colors
	case domain.CategoryObjects:
		return c.Objects
	case domain.CategoryMood:
		return c.Mood
	default:
		return c.Scene
	}
}

type prototype struct {
	label  string
	vector []float32
	norm   float64
}

// Classifier scores an embedding against fixed label prototypes.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	category   domain.Category
	prototypes []prototype
	dim        int
	threshold  float64
	maxLabels  int
}

// NewClassifier validates prototypes and returns a Classifier. All prototype
// vectors must be non-zero and share one dimension.
func NewClassifier(category domain.Category, protos []Prototype, cfg CategoryConfig) (*Classifier, error) {
	if len(protos) == 0 {
		return nil, fmt.Errorf("classifier %s: no prototypes", category)
	}
	c := &Classifier{
		category:  category,
		threshold: cfg.Threshold,
		maxLabels: cfg.MaxLabels,
		dim:       len(protos[0].Vector),
	}
	for _, p := range protos {
		if len(p.Vector) == 0 || len(p.Vector) != c.dim {
			return nil, fmt.Errorf("classifier %s: label %q: %w", category, p.Label, ErrDimensionMismatch)
		}
		n := norm(p.Vector)
		if n == 0 {
			return nil, fmt.Errorf("classifier %s: label %q: zero vector", category, p.Label)
		}
		c.prototypes = append(c.prototypes, prototype{label: p.Label, vector: p.Vector, norm: n})
	}
	return c, nil
}

// Scores returns every label ranked by descending similarity, ties broken by label.
func (c *Classifier) Scores(vec []float32) ([]Score, error) {
	if len(vec) != c.dim {
		return nil, fmt.Errorf("classifier %s: got %d dims, want %d: %w", c.category, len(vec), c.dim, ErrDimensionMismatch)
	}
	vn := norm(vec)
	scores := make([]Score, 0, len(c.prototypes))
	for _, p := range c.prototypes {
		s := 0.0
		if vn > 0 {
			s = dot(vec, p.vector) / (vn * p.norm)
		}
		scores = append(scores, Score{Label: p.label, Score: s})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Label < scores[j].Label
	})
	return scores, nil
}

// Classify returns the labels scoring at or above the threshold, best first,
// capped at the configured maximum. No label passing yields an empty slice.
func (c *Classifier) Classify(vec []float32) ([]string, error) {
	scores, err := c.Scores(vec)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Score < c.threshold {
			break
		}
		labels = append(labels, s.Label)
		if c.maxLabels > 0 && len(labels) == c.maxLabels {
			break
		}
	}
	return labels, nil
}

// Best returns the single best label, or domain.SceneUnknown when none passes the threshold.
func (c *Classifier) Best(vec []float32) (string, error) {
	labels, err := c.Classify(vec)
	if err != nil {
		return "", err
	}
	if len(labels) == 0 {
		return domain.SceneUnknown, nil
	}
	return labels[0], nil
}

// ClassifierSet groups the four category classifiers used by the Extractor.
type ClassifierSet struct {
	Colors  *Classifier
	Objects *Classifier
	Mood    *Classifier
	Scene   *Classifier
}

// Classify runs every category against vec and builds the feature record.
func (s *ClassifierSet) Classify(vec []float32) (domain.ImageFeatures, error) {
	colors, err := s.Colors.Classify(vec)
	if err != nil {
		return domain.ImageFeatures{}, err
	}
	objects, err := s.Objects.Classify(vec)
	if err != nil {
		return domain.ImageFeatures{}, err
	}
	mood, err := s.Mood.Classify(vec)
	if err != nil {
		return domain.ImageFeatures{}, err
	}
	scene, err := s.Scene.Best(vec)
	if err != nil {
		return domain.ImageFeatures{}, err
	}
	return domain.NewImageFeatures(colors, objects, mood, scene), nil
}

// BuildClassifiers embeds every taxonomy prompt once and assembles the classifier set.
func BuildClassifiers(ctx context.Context, embedder ports.Embedder, tax domain.Taxonomy, cfg ClassifierConfig) (*ClassifierSet, error) {
	built := make(map[domain.Category]*Classifier, len(domain.Categories))
	for _, cat := range domain.Categories {
		labels := tax.Labels(cat)
		protos := make([]Prototype, 0, len(labels))
		for _, l := range labels {
			prompt := strings.TrimSpace(l.Prompt)
			if prompt == "" {
				prompt = l.Name
			}
			vec, err := embedder.EmbedText(ctx, prompt)
			if err != nil {
				return nil, fmt.Errorf("build classifiers: embed %s/%s: %w", cat, l.Name, err)
			}
			protos = append(protos, Prototype{Label: l.Name, Vector: vec})
		}
		c, err := NewClassifier(cat, protos, cfg.For(cat))
		if err != nil {
			return nil, fmt.Errorf("build classifiers: %w", err)
		}
		built[cat] = c
	}
	return &ClassifierSet{
		Colors:  built[domain.CategoryColors],
		Objects: built[domain.CategoryObjects],
		Mood:    built[domain.CategoryMood],
		Scene:   built[domain.CategoryScene],
	}, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
