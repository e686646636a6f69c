package spotify

import (
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// mapTrackToDomain converts a raw Spotify track to a TrackCandidate.
// Artist credits every named artist in Spotify's order, primary first,
// joined with ", ".
func mapTrackToDomain(st spotifyTrack) domain.TrackCandidate {
	artistNames := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artistNames = append(artistNames, a.Name)
		}
	}

	// Spotify lists album images widest first
	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	providerURL := st.ExternalURLs.Spotify
	if providerURL == "" && st.ID != "" {
		providerURL = trackURLPrefix + st.ID
	}

	id := st.ID
	if id == "" {
		id = domain.TrackIDFromURL(providerURL)
	}

	preview := ""
	if st.PreviewURL != nil {
		preview = *st.PreviewURL
	}

	return domain.TrackCandidate{
		ID:            id,
		Song:          st.Name,
		Artist:        strings.Join(artistNames, ", "),
		Album:         st.Album.Name,
		AlbumCoverURL: coverURL,
		ProviderURL:   providerURL,
		PreviewURL:    preview,
	}
}

func mapTracksToDomain(tracks []spotifyTrack) []domain.TrackCandidate {
	out := make([]domain.TrackCandidate, 0, len(tracks))
	for _, st := range tracks {
		out = append(out, mapTrackToDomain(st))
	}
	return out
}
