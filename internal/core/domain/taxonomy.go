package domain

// Category is one of the four feature categories produced by extraction.
type Category string

const (
	CategoryColors  Category = "colors"
	CategoryObjects Category = "objects"
	CategoryMood    Category = "mood"
	CategoryScene   Category = "scene"
)

// Categories lists every Category in extraction order.
var Categories = []Category{CategoryColors, CategoryObjects, CategoryMood, CategoryScene}

// Label is a taxonomy entry: the emitted feature name and the text prompt embedded
// to build its prototype vector.
type Label struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// Taxonomy maps every category to its candidate labels.
type Taxonomy struct {
	Colors  []Label `yaml:"colors"`
	Objects []Label `yaml:"objects"`
	Mood    []Label `yaml:"mood"`
	Scene   []Label `yaml:"scene"`
}

// Labels returns the labels of category c.
func (t Taxonomy) Labels(c Category) []Label {
	switch c {
	case CategoryColors:
		return t.Colors
	case CategoryObjects:
		return t.Objects
	case CategoryMood:
		return t.Mood
	case CategoryScene:
		return t.Scene
	}
	return nil
}
