package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

func TestMapper_EmptyFeaturesGiveNeutralProfile(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())

	assert.Equal(t, domain.NeutralProfile(), m.Map(domain.EmptyFeatures()))
	assert.Equal(t, domain.NeutralProfile(), m.Map(domain.ImageFeatures{}))
	assert.Equal(t, domain.NeutralProfile(), m.Map(domain.NewImageFeatures([]string{"chartreuse"}, []string{"spaceship"}, nil, "moon")))
}

func TestMapper_ConfiguredTempoDefault(t *testing.T) {
	cfg := DefaultMapperConfig()
	cfg.TempoDefault = 100
	assert.Equal(t, 100.0, NewMapper(cfg).Map(domain.EmptyFeatures()).Tempo)
}

func TestMapper_AlwaysInRangeAndIdempotent(t *testing.T) {
	cfg := DefaultMapperConfig()
	cfg.MoodWeight = 5
	cfg.ColorWeight = 5
	m := NewMapper(cfg)

	inputs := []domain.ImageFeatures{
		domain.NewImageFeatures([]string{"neon", "red", "warm"}, []string{"crowd", "fire", "car"}, []string{"energetic", "joyful"}, "party"),
		domain.NewImageFeatures([]string{"dark", "gray", "black"}, []string{"snow", "forest"}, []string{"melancholy", "calm"}, "nature"),
		domain.NewImageFeatures(nil, nil, []string{"tense"}, ""),
	}
	for _, f := range inputs {
		p := m.Map(f)
		assert.True(t, p.InRange(), "profile out of range: %+v", p)
		assert.Equal(t, p, p.Clamp())
		assert.Equal(t, p, m.Map(f), "mapping must be deterministic")
	}
}

func TestMapper_CategoryDirections(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())
	neutral := m.Neutral()

	tests := []struct {
		name     string
		features domain.ImageFeatures
		check    func(t *testing.T, p domain.AudioTargetProfile)
	}{
		{
			name:     "warm colors raise valence and energy",
			features: domain.NewImageFeatures([]string{"warm"}, nil, nil, ""),
			check: func(t *testing.T, p domain.AudioTargetProfile) {
				assert.Greater(t, p.Valence, neutral.Valence)
				assert.Greater(t, p.Energy, neutral.Energy)
			},
		},
		{
			name:     "calm mood lowers energy",
			features: domain.NewImageFeatures(nil, nil, []string{"calm"}, ""),
			check: func(t *testing.T, p domain.AudioTargetProfile) {
				assert.Less(t, p.Energy, neutral.Energy)
				assert.Less(t, p.Tempo, neutral.Tempo)
			},
		},
		{
			name:     "crowd and party raise danceability",
			features: domain.NewImageFeatures(nil, []string{"crowd"}, nil, "party"),
			check: func(t *testing.T, p domain.AudioTargetProfile) {
				assert.Greater(t, p.Danceability, neutral.Danceability)
			},
		},
		{
			name:     "forest in nature raises instrumentalness",
			features: domain.NewImageFeatures(nil, []string{"forest"}, nil, "nature"),
			check: func(t *testing.T, p domain.AudioTargetProfile) {
				assert.Greater(t, p.Instrumentalness, neutral.Instrumentalness)
			},
		},
		{
			name:     "labels match case-insensitively",
			features: domain.NewImageFeatures([]string{"WARM"}, nil, []string{"Joyful"}, ""),
			check: func(t *testing.T, p domain.AudioTargetProfile) {
				assert.Greater(t, p.Valence, neutral.Valence)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, m.Map(tc.features))
		})
	}
}

func TestMapper_WarmBeachJoyfulOutdoor(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())
	p := m.Map(domain.NewImageFeatures([]string{"warm"}, []string{"beach"}, []string{"joyful"}, "outdoor"))

	assert.Greater(t, p.Valence, 0.5)
	assert.Greater(t, p.Energy, 0.5)
}

func TestMapper_ZeroWeightMutesCategory(t *testing.T) {
	cfg := DefaultMapperConfig()
	cfg.ColorWeight = 0
	m := NewMapper(cfg)

	assert.Equal(t, m.Neutral(), m.Map(domain.NewImageFeatures([]string{"neon", "red"}, nil, nil, "")))
}

func TestRankWeightedMean_FavoursEarlierLabels(t *testing.T) {
	first, ok := rankWeightedMean([]string{"joyful", "melancholy"}, moodEffects)
	assert.True(t, ok)
	assert.Greater(t, first.valence, 0.0)

	swapped, _ := rankWeightedMean([]string{"melancholy", "joyful"}, moodEffects)
	assert.Less(t, swapped.valence, 0.0)

	_, ok = rankWeightedMean([]string{"bogus"}, moodEffects)
	assert.False(t, ok)
}
