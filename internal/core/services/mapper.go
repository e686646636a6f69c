package services

import (
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// effect is the push one label applies to the neutral profile. Tempo is in BPM.
type effect struct {
	valence, energy, dance, instr, tempo float64
}

var colorEffects = map[string]effect{
	"warm":   {0.15, 0.15, 0.05, 0, 8},
	"red":    {0.05, 0.20, 0.05, 0, 10},
	"orange": {0.15, 0.10, 0.05, 0, 5},
	"yellow": {0.20, 0.10, 0.05, 0, 5},
	"pink":   {0.15, 0.05, 0.10, 0, 0},
	"cool":   {-0.05, -0.10, 0, 0.05, -5},
	"blue":   {-0.10, -0.10, 0, 0.05, -8},
	"green":  {0.05, -0.05, 0, 0.05, 0},
	"purple": {-0.05, 0, 0, 0.10, 0},
	"black":  {-0.15, -0.05, 0, 0.05, -5},
	"dark":   {-0.15, -0.10, 0, 0.05, -5},
	"white":  {0.10, 0.05, 0, 0, 0},
	"bright": {0.10, 0.05, 0, 0, 0},
	"gray":   {-0.10, -0.10, 0, 0.05, -5},
	"brown":  {0, -0.05, 0, 0.05, 0},
	"pastel": {0.10, -0.10, 0, 0.05, -5},
	"neon":   {0.05, 0.25, 0.20, 0, 15},
}

var moodEffects = map[string]effect{
	"joyful":     {0.30, 0.20, 0.15, 0, 10},
	"energetic":  {0.10, 0.30, 0.20, 0, 20},
	"calm":       {0.05, -0.25, -0.10, 0.15, -20},
	"peaceful":   {0.10, -0.20, -0.10, 0.15, -15},
	"melancholy": {-0.30, -0.15, -0.10, 0.05, -15},
	"romantic":   {0.15, -0.10, 0.05, 0, -10},
	"mysterious": {-0.15, -0.05, 0, 0.20, 0},
	"nostalgic":  {-0.05, -0.10, 0, 0.05, -5},
	"dramatic":   {-0.10, 0.20, 0, 0.15, 5},
	"tense":      {-0.20, 0.15, 0, 0.05, 10},
}

var objectEffects = map[string]effect{
	"beach":    {0.15, 0.05, 0.15, 0, 0},
	"ocean":    {0.05, -0.05, 0, 0.10, -5},
	"mountain": {0, -0.05, 0, 0.15, -5},
	"forest":   {0, -0.10, 0, 0.15, -10},
	"city":     {0, 0.15, 0.10, 0, 5},
	"car":      {0, 0.15, 0.05, 0, 10},
	"people":   {0.10, 0, 0.10, -0.15, 0},
	"crowd":    {0, 0.20, 0.20, -0.10, 10},
	"dog":      {0.15, 0.05, 0, 0, 0},
	"cat":      {0.05, -0.10, 0, 0, 0},
	"flower":   {0.15, -0.05, 0, 0.05, 0},
	"food":     {0.10, 0, 0.05, 0, 0},
	"sunset":   {0.05, -0.10, 0, 0.05, -5},
	"building": {0, 0.05, 0, 0.05, 0},
	"road":     {0, 0.10, 0, 0, 5},
	"guitar":   {0, 0.05, 0, 0.10, 0},
	"snow":     {-0.05, -0.15, 0, 0.10, -10},
	"fire":     {-0.05, 0.20, 0, 0, 10},
}

var sceneEffects = map[string]effect{
	"outdoor": {0.05, 0.05, 0, 0, 0},
	"indoor":  {0, -0.05, 0, 0.05, 0},
	"nature":  {0, -0.10, 0, 0.15, -5},
	"urban":   {0, 0.10, 0.10, 0, 5},
	"night":   {-0.10, 0.05, 0.10, 0, 0},
	"party":   {0.15, 0.25, 0.25, 0, 15},
	"studio":  {0, 0, 0, 0.10, 0},
	"water":   {0.05, -0.10, 0, 0.10, -5},
}

// MapperConfig weights each feature category's contribution.
type MapperConfig struct {
	ColorWeight  float64
	MoodWeight   float64
	ObjectWeight float64
	SceneWeight  float64
	TempoDefault float64
}

// DefaultMapperConfig weights every category equally around a 120 BPM baseline.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		ColorWeight:  1,
		MoodWeight:   1,
		ObjectWeight: 1,
		SceneWeight:  1,
		TempoDefault: domain.DefaultTempo,
	}
}

// Mapper converts ImageFeatures into an AudioTargetProfile. It is pure and
// holds no mutable state.
type Mapper struct {
	cfg MapperConfig
}

// NewMapper constructs a Mapper.
func NewMapper(cfg MapperConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

// Neutral returns the profile produced for an image with no usable features.
func (m *Mapper) Neutral() domain.AudioTargetProfile {
	return domain.NeutralProfileWithTempo(m.cfg.TempoDefault)
}

// Map returns the target profile for f. The result is always in range.
func (m *Mapper) Map(f domain.ImageFeatures) domain.AudioTargetProfile {
	p := m.Neutral()

	var scene []string
	if f.HasScene() {
		scene = []string{f.Scene}
	}

	for _, c := range []struct {
		labels  []string
		lexicon map[string]effect
		weight  float64
	}{
		{f.Colors, colorEffects, m.cfg.ColorWeight},
		{f.Mood, moodEffects, m.cfg.MoodWeight},
		{f.Objects, objectEffects, m.cfg.ObjectWeight},
		{scene, sceneEffects, m.cfg.SceneWeight},
	} {
		e, ok := rankWeightedMean(c.labels, c.lexicon)
		if !ok {
			continue
		}
		p.Valence += c.weight * e.valence
		p.Energy += c.weight * e.energy
		p.Danceability += c.weight * e.dance
		p.Instrumentalness += c.weight * e.instr
		p.Tempo += c.weight * e.tempo
	}
	return p.Clamp()
}

// rankWeightedMean averages the effects of the known labels, weighting the
// label at rank i by 1/(i+1). Unknown labels are skipped but keep their rank.
func rankWeightedMean(labels []string, lexicon map[string]effect) (effect, bool) {
	var sum effect
	var total float64
	for i, l := range labels {
		e, ok := lexicon[strings.ToLower(strings.TrimSpace(l))]
		if !ok {
			continue
		}
		w := 1 / float64(i+1)
		sum.valence += w * e.valence
		sum.energy += w * e.energy
		sum.dance += w * e.dance
		sum.instr += w * e.instr
		sum.tempo += w * e.tempo
		total += w
	}
	if total == 0 {
		return effect{}, false
	}
	return effect{
		valence: sum.valence / total,
		energy:  sum.energy / total,
		dance:   sum.dance / total,
		instr:   sum.instr / total,
		tempo:   sum.tempo / total,
	}, true
}
