package spotify

// spotifyTrack is the full track object returned by the Web API.
type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DurationMs   int             `json:"duration_ms"`
	Artists      []spotifyArtist `json:"artists"`
	Album        spotifyAlbum    `json:"album"`
	ExternalURLs externalURLs    `json:"external_urls"`
	PreviewURL   *string         `json:"preview_url"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// recommendationsResponse is the body of GET /recommendations.
type recommendationsResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}

// genreSeedsResponse is the body of GET /recommendations/available-genre-seeds.
type genreSeedsResponse struct {
	Genres []string `json:"genres"`
}
