package domain

import "math"

const (
	// NeutralLevel is the baseline for every unit-range audio attribute.
	NeutralLevel = 0.5
	// DefaultTempo is the neutral target tempo in beats per minute.
	DefaultTempo = 120.0
	// MinTempo and MaxTempo bound the target tempo; the range stays inside (0, 300].
	MinTempo = 40.0
	MaxTempo = 300.0
)

// AudioTargetProfile is the normalized target sent to the recommendation provider.
type AudioTargetProfile struct {
	Valence          float64 `json:"valence"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
}

// NeutralProfile is the documented default for images with no usable features.
func NeutralProfile() AudioTargetProfile {
	return NeutralProfileWithTempo(DefaultTempo)
}

// NeutralProfileWithTempo is NeutralProfile with a caller supplied tempo baseline.
// Tempos outside the valid range fall back to DefaultTempo.
func NeutralProfileWithTempo(tempo float64) AudioTargetProfile {
	if math.IsNaN(tempo) || tempo < MinTempo || tempo > MaxTempo {
		tempo = DefaultTempo
	}
	return AudioTargetProfile{
		Valence:          NeutralLevel,
		Energy:           NeutralLevel,
		Danceability:     NeutralLevel,
		Instrumentalness: NeutralLevel,
		Tempo:            tempo,
	}
}

// Clamp forces every field into its declared range. Clamp is idempotent.
func (p AudioTargetProfile) Clamp() AudioTargetProfile {
	return AudioTargetProfile{
		Valence:          clampUnit(p.Valence),
		Energy:           clampUnit(p.Energy),
		Danceability:     clampUnit(p.Danceability),
		Instrumentalness: clampUnit(p.Instrumentalness),
		Tempo:            clampTempo(p.Tempo),
	}
}

// InRange reports whether every field already lies in its declared range.
func (p AudioTargetProfile) InRange() bool {
	return p == p.Clamp()
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralLevel
	}
	return math.Min(math.Max(v, 0), 1)
}

func clampTempo(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultTempo
	}
	return math.Min(math.Max(v, MinTempo), MaxTempo)
}
