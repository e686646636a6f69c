package domain

import "strings"

// DefaultGenres is the genre catalogue offered to users.
var DefaultGenres = []string{
	"pop", "rock", "hip-hop", "electronic", "jazz", "classical",
	"r-n-b", "country", "reggae", "folk", "metal", "blues",
}

// NormalizeGenre lowercases and trims a genre identifier.
func NormalizeGenre(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// GenreSet is an immutable, ordered set of recognized genre identifiers.
type GenreSet struct {
	ids   []string
	index map[string]struct{}
}

// NewGenreSet builds a set from ids, normalizing and dropping blanks and duplicates.
func NewGenreSet(ids []string) GenreSet {
	s := GenreSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = NormalizeGenre(id)
		if id == "" {
			continue
		}
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports whether id is recognized.
func (s GenreSet) Contains(id string) bool {
	_, ok := s.index[NormalizeGenre(id)]
	return ok
}

// IDs returns a copy of the recognized identifiers in declaration order.
func (s GenreSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of recognized identifiers.
func (s GenreSet) Len() int { return len(s.ids) }

// Filter splits requested into recognized identifiers (normalized, deduplicated,
// first-seen order) and the raw identifiers that were rejected.
func (s GenreSet) Filter(requested []string) (accepted, rejected []string) {
	seen := make(map[string]struct{}, len(requested))
	for _, raw := range requested {
		id := NormalizeGenre(raw)
		if _, ok := s.index[id]; !ok {
			rejected = append(rejected, raw)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		accepted = append(accepted, id)
	}
	return accepted, rejected
}

// Intersect returns the members of s that also appear in other, keeping s's order.
func (s GenreSet) Intersect(other []string) GenreSet {
	o := NewGenreSet(other)
	kept := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if o.Contains(id) {
			kept = append(kept, id)
		}
	}
	return NewGenreSet(kept)
}
