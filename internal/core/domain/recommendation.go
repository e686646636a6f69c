package domain

import "time"

// MaxUploadBytes is the default upload limit for a single image.
const MaxUploadBytes = 5 << 20

// Recommendation is the outcome of one successful pipeline run.
type Recommendation struct {
	ID string `json:"id"`
	TrackCandidate
	Explanation   string             `json:"explanation"`
	ImageFeatures ImageFeatures      `json:"imageFeatures"`
	Profile       AudioTargetProfile `json:"profile"`
	Genres        []string           `json:"genres"`
	ImageRef      string             `json:"imageRef,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`

	// PreviewEnergy is filled in asynchronously by the preview worker.
	PreviewEnergy *float64 `json:"previewEnergy,omitempty"`
}

// ImageUpload carries raw image bytes submitted by a user.
type ImageUpload struct {
	UserID   string
	Filename string
	MIMEType string
	Data     []byte
}

// ImageInput is what an Embedder sees: stored reference plus the bytes to embed.
type ImageInput struct {
	Reference string
	MIMEType  string
	Data      []byte
}

// RecommendationRequest is the input to one pipeline run. Exactly one of
// Image.Data or ImageRef is expected to be set.
type RecommendationRequest struct {
	User     User
	Image    ImageUpload
	ImageRef string
	Genres   []string
}

// CatalogQuery is the request sent to the catalog provider.
type CatalogQuery struct {
	Profile AudioTargetProfile
	Genres  []string
	Limit   int
}

// PreviewJob asks the worker pool to analyze a track preview clip.
type PreviewJob struct {
	RecommendationID string
	PreviewURL       string
}
