package domain

import (
	"encoding/json"
	"strings"
)

// SceneUnknown is the scene label used when no scene classification cleared its threshold.
const SceneUnknown = "unknown"

// ImageFeatures holds the visual descriptors extracted from one image.
//
// Colors are ordered by dominance, Mood by confidence. Objects never contain
// duplicates. Scene is always a defined label, SceneUnknown when undetected.
type ImageFeatures struct {
	Colors  []string `json:"colors"`
	Objects []string `json:"objects"`
	Mood    []string `json:"mood"`
	Scene   string   `json:"scene"`
}

// NewImageFeatures builds a normalized ImageFeatures value. Blank labels are
// dropped, objects are deduplicated case-insensitively and an empty scene
// becomes SceneUnknown.
func NewImageFeatures(colors, objects, mood []string, scene string) ImageFeatures {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		scene = SceneUnknown
	}
	return ImageFeatures{
		Colors:  cleanLabels(colors, false),
		Objects: cleanLabels(objects, true),
		Mood:    cleanLabels(mood, false),
		Scene:   scene,
	}
}

// EmptyFeatures returns the all-empty feature record.
func EmptyFeatures() ImageFeatures {
	return NewImageFeatures(nil, nil, nil, "")
}

// IsEmpty reports whether no category carries a detected label.
func (f ImageFeatures) IsEmpty() bool {
	return len(f.Colors) == 0 && len(f.Objects) == 0 && len(f.Mood) == 0 && !f.HasScene()
}

// HasScene reports whether a concrete scene was detected.
func (f ImageFeatures) HasScene() bool {
	s := strings.TrimSpace(f.Scene)
	return s != "" && !strings.EqualFold(s, SceneUnknown)
}

// Normalized returns a copy that satisfies the ImageFeatures invariants.
func (f ImageFeatures) Normalized() ImageFeatures {
	return NewImageFeatures(f.Colors, f.Objects, f.Mood, f.Scene)
}

// MarshalJSON always emits every field, with empty collections instead of null.
func (f ImageFeatures) MarshalJSON() ([]byte, error) {
	type wire ImageFeatures
	return json.Marshal(wire(f.Normalized()))
}

func cleanLabels(labels []string, dedupe bool) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if dedupe {
			key := strings.ToLower(l)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}
