package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// LoadTaxonomy reads the label taxonomy from path, or the built-in one when path is empty.
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	data := defaultTaxonomy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return domain.Taxonomy{}, fmt.Errorf("config: read taxonomy: %w", err)
		}
		data = b
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes a taxonomy document. Every category needs at least one
// label and label names must be unique within their category.
func ParseTaxonomy(data []byte) (domain.Taxonomy, error) {
	var t domain.Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return domain.Taxonomy{}, fmt.Errorf("config: parse taxonomy: %w", err)
	}
	for _, c := range domain.Categories {
		labels := t.Labels(c)
		if len(labels) == 0 {
			return domain.Taxonomy{}, fmt.Errorf("config: taxonomy category %s has no labels", c)
		}
		seen := make(map[string]bool, len(labels))
		for _, l := range labels {
			name := strings.ToLower(strings.TrimSpace(l.Name))
			if name == "" {
				return domain.Taxonomy{}, fmt.Errorf("config: taxonomy category %s has an unnamed label", c)
			}
			if seen[name] {
				return domain.Taxonomy{}, fmt.Errorf("config: taxonomy category %s repeats label %q", c, l.Name)
			}
			seen[name] = true
		}
	}
	return t, nil
}
