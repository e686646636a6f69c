package domain

import (
	"net/url"
	"strings"
)

// TrackCandidate is a single catalog track returned by the recommendation provider.
// Candidates are fetched fresh for every request and never mutated afterwards.
type TrackCandidate struct {
	ID            string `json:"trackId"`
	Song          string `json:"song"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	AlbumCoverURL string `json:"albumCover,omitempty"` // optional
	ProviderURL   string `json:"spotifyUrl"`
	PreviewURL    string `json:"previewUrl,omitempty"` // optional, 30s MP3 clip
}

// IsZero reports whether the candidate carries no track identity at all.
func (t TrackCandidate) IsZero() bool {
	return t.ID == "" && t.ProviderURL == "" && t.Song == ""
}

// TrackIDFromURL returns the last path segment of a provider URL,
// e.g. https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC -> 4uLU6hMCjMI75M1A2tKUQC.
func TrackIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx != -1 {
		return path[idx+1:]
	}
	return path
}
