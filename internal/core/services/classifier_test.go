package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

func TestClassifier_Classify(t *testing.T) {
	protos := []Prototype{
		{Label: "b", Vector: []float32{1, 0, 0}},
		{Label: "a", Vector: []float32{1, 0, 0}},
		{Label: "c", Vector: []float32{0, 1, 0}},
		{Label: "d", Vector: []float32{0, 0, 1}},
	}

	tests := []struct {
		name string
		cfg  CategoryConfig
		vec  []float32
		want []string
	}{
		{
			name: "ties broken by label",
			cfg:  CategoryConfig{Threshold: 0.5},
			vec:  []float32{1, 0, 0},
			want: []string{"a", "b"},
		},
		{
			name: "descending score",
			cfg:  CategoryConfig{Threshold: 0.1},
			vec:  []float32{0.2, 1, 0},
			want: []string{"c", "a", "b"},
		},
		{
			name: "capped at max labels",
			cfg:  CategoryConfig{Threshold: 0.1, MaxLabels: 1},
			vec:  []float32{0.2, 1, 0},
			want: []string{"c"},
		},
		{
			name: "nothing above threshold yields empty",
			cfg:  CategoryConfig{Threshold: 0.9},
			vec:  []float32{1, 1, 1},
			want: []string{},
		},
		{
			name: "zero vector yields empty",
			cfg:  CategoryConfig{Threshold: 0.1},
			vec:  []float32{0, 0, 0},
			want: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewClassifier(domain.CategoryMood, protos, tc.cfg)
			require.NoError(t, err)

			got, err := c.Classify(tc.vec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifier_BestFallsBackToUnknown(t *testing.T) {
	c, err := NewClassifier(domain.CategoryScene, []Prototype{
		{Label: "outdoor", Vector: []float32{1, 0}},
		{Label: "indoor", Vector: []float32{0, 1}},
	}, CategoryConfig{Threshold: 0.8, MaxLabels: 1})
	require.NoError(t, err)

	best, err := c.Best([]float32{0, 1})
	require.NoError(t, err)
	assert.Equal(t, "indoor", best)

	best, err = c.Best([]float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SceneUnknown, best)
}

func TestClassifier_DimensionMismatch(t *testing.T) {
	_, err := NewClassifier(domain.CategoryColors, []Prototype{
		{Label: "warm", Vector: []float32{1, 0}},
		{Label: "blue", Vector: []float32{1, 0, 0}},
	}, CategoryConfig{})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	c, err := NewClassifier(domain.CategoryColors, []Prototype{{Label: "warm", Vector: []float32{1, 0}}}, CategoryConfig{})
	require.NoError(t, err)
	_, err = c.Classify([]float32{1, 0, 0})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewClassifier(domain.CategoryColors, nil, CategoryConfig{})
	require.Error(t, err)
}

func TestBuildClassifiers(t *testing.T) {
	emb := &fakeEmbedder{}
	set := testClassifiers(t, emb)

	assert.Equal(t, len(testPrompts()), emb.textCalls)

	features, err := set.Classify(vectorFor("warm colors", "a beach", "a joyful mood", "an outdoor scene"))
	require.NoError(t, err)
	assert.Equal(t, domain.ImageFeatures{
		Colors:  []string{"warm"},
		Objects: []string{"beach"},
		Mood:    []string{"joyful"},
		Scene:   "outdoor",
	}, features)
}

type failingTextEmbedder struct{ fakeEmbedder }

func (f *failingTextEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return nil, errors.New("model offline")
}

func TestBuildClassifiers_PropagatesEmbedError(t *testing.T) {
	_, err := BuildClassifiers(context.Background(), &failingTextEmbedder{}, testTaxonomy, DefaultClassifierConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}
