package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const (
	maxNamedLabels  = 2
	highEnergy      = 0.6
	positiveValence = 0.5

	// neutralBand is how far valence and energy may sit from the baseline
	// and still read as balanced.
	neutralBand = 0.1
)

// Explainer writes a short, grounded reason for a recommendation.
type Explainer struct {
	mapper *Mapper
}

// NewExplainer constructs an Explainer. The mapper is used to describe the
// feel the features translate to.
func NewExplainer(m *Mapper) *Explainer {
	if m == nil {
		m = NewMapper(DefaultMapperConfig())
	}
	return &Explainer{mapper: m}
}

// Explain never fails. With at least one detected feature the text names the
// detected labels literally, otherwise it falls back to a generic sentence.
func (x *Explainer) Explain(f domain.ImageFeatures, t domain.TrackCandidate) string {
	title := trackTitle(t)

	var clauses []string
	if len(f.Mood) > 0 {
		clauses = append(clauses, "it feels "+joinLabels(f.Mood))
	}
	if len(f.Objects) > 0 {
		clauses = append(clauses, "it shows "+joinLabels(f.Objects))
	}
	if len(f.Colors) > 0 {
		clauses = append(clauses, "the palette leans "+joinLabels(f.Colors))
	}
	if f.HasScene() {
		clauses = append(clauses, fmt.Sprintf("the setting reads as %s", f.Scene))
	}
	if len(clauses) == 0 {
		return fmt.Sprintf("%s was picked to match the overall feel of your image.", title)
	}

	return fmt.Sprintf("%s fits your image: %s. %s", title, joinClauses(clauses), feel(x.mapper.Map(f)))
}

func trackTitle(t domain.TrackCandidate) string {
	song := strings.TrimSpace(t.Song)
	artist := strings.TrimSpace(t.Artist)
	switch {
	case song != "" && artist != "":
		return fmt.Sprintf("%q by %s", song, artist)
	case song != "":
		return fmt.Sprintf("%q", song)
	default:
		return "This track"
	}
}

func feel(p domain.AudioTargetProfile) string {
	switch {
	case math.Abs(p.Valence-domain.NeutralLevel) < neutralBand && math.Abs(p.Energy-domain.NeutralLevel) < neutralBand:
		return "The song keeps the same balanced, even-tempered mood."
	case p.Energy > highEnergy && p.Valence > positiveValence:
		return "The song brings the same upbeat, high-energy feel."
	case p.Energy > highEnergy:
		return "The song matches that intense, darker energy."
	case p.Valence > positiveValence:
		return "The song keeps things relaxed and bright."
	default:
		return "The song carries the same reflective, melancholic tone."
	}
}

func joinLabels(labels []string) string {
	if len(labels) > maxNamedLabels {
		labels = labels[:maxNamedLabels]
	}
	return strings.Join(labels, " and ")
}

func joinClauses(clauses []string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return strings.Join(clauses[:len(clauses)-1], ", ") + " and " + clauses[len(clauses)-1]
}
