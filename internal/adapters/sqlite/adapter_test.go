package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleRecommendation(id string, createdAt time.Time) domain.Recommendation {
	return domain.Recommendation{
		ID: id,
		TrackCandidate: domain.TrackCandidate{
			ID:            "4uLU6hMCjMI75M1A2tKUQC",
			Song:          "Here Comes the Sun",
			Artist:        "The Beatles",
			Album:         "Abbey Road",
			AlbumCoverURL: "https://i.scdn.co/image/cover.jpg",
			ProviderURL:   "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			PreviewURL:    "https://p.scdn.co/mp3-preview/abc",
		},
		Explanation:   "Here Comes the Sun by The Beatles was picked because it feels joyful.",
		ImageFeatures: domain.NewImageFeatures([]string{"warm"}, []string{"beach"}, []string{"joyful"}, "outdoor"),
		Profile:       domain.AudioTargetProfile{Valence: 0.9, Energy: 0.7, Danceability: 0.6, Instrumentalness: 0.2, Tempo: 128},
		Genres:        []string{"pop"},
		ImageRef:      "images/u1/abc.png",
		CreatedAt:     createdAt,
	}
}

func TestAdapter_MigrateIsIdempotent(t *testing.T) {
	a := newTestAdapter(t)
	if err := a.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestAdapter_StoreAndLoadImage(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		upload  domain.ImageUpload
		wantExt string
		wantErr error
	}{
		{
			name:    "png by mime",
			upload:  domain.ImageUpload{UserID: "u1", Filename: "beach.PNG", MIMEType: "image/png", Data: []byte("png-bytes")},
			wantExt: ".png",
		},
		{
			name:    "extension from filename",
			upload:  domain.ImageUpload{UserID: "u1", Filename: "photo.HEIC", MIMEType: "application/octet-stream", Data: []byte("x")},
			wantExt: ".heic",
		},
		{
			name:    "missing user",
			upload:  domain.ImageUpload{Data: []byte("x")},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty data",
			upload:  domain.ImageUpload{UserID: "u1"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := a.StoreImage(ctx, tt.upload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(ref, "images/u1/"), ref)
			assert.True(t, strings.HasSuffix(ref, tt.wantExt), ref)
			assert.True(t, domain.ImageRefOwnedBy(ref, "u1"))

			img, err := a.LoadImage(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, ref, img.Reference)
			assert.Equal(t, tt.upload.MIMEType, img.MIMEType)
			assert.Equal(t, tt.upload.Data, img.Data)
		})
	}

	_, err := a.LoadImage(ctx, "images/u1/missing.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdapter_SaveAndGetRecommendation(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	user := domain.User{ID: "u1"}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecommendation("rec-1", created)

	require.NoError(t, a.SaveRecommendation(ctx, user, rec))

	got, err := a.GetRecommendation(ctx, "u1", "rec-1")
	require.NoError(t, err)
	assert.Equal(t, rec.TrackCandidate, got.TrackCandidate)
	assert.Equal(t, rec.Explanation, got.Explanation)
	assert.Equal(t, rec.ImageFeatures, got.ImageFeatures)
	assert.Equal(t, rec.Profile, got.Profile)
	assert.Equal(t, rec.Genres, got.Genres)
	assert.Equal(t, rec.ImageRef, got.ImageRef)
	assert.True(t, created.Equal(got.CreatedAt), "created_at round trips: %v", got.CreatedAt)
	assert.Nil(t, got.PreviewEnergy)

	_, err = a.GetRecommendation(ctx, "u2", "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "other users cannot read the row")

	_, err = a.GetRecommendation(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdapter_SaveRecommendation_TrackIDFromProviderURL(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	rec := sampleRecommendation("rec-1", time.Now())
	rec.TrackCandidate.ID = "internal-id"
	rec.ProviderURL = "https://open.spotify.com/track/fromurl"

	require.NoError(t, a.SaveRecommendation(ctx, domain.User{ID: "u1"}, rec))

	var trackID string
	require.NoError(t, a.db.QueryRowContext(ctx, "SELECT track_id FROM recommendations WHERE id = ?", "rec-1").Scan(&trackID))
	assert.Equal(t, "fromurl", trackID)
}

func TestAdapter_SaveRecommendation_RequiresUser(t *testing.T) {
	a := newTestAdapter(t)
	err := a.SaveRecommendation(context.Background(), domain.User{}, sampleRecommendation("rec-1", time.Now()))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdapter_ListRecommendations(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, a.SaveRecommendation(ctx, domain.User{ID: "u1"}, sampleRecommendation(id, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, a.SaveRecommendation(ctx, domain.User{ID: "u2"}, sampleRecommendation("other", base.Add(time.Hour))))

	tests := []struct {
		name  string
		user  string
		limit int
		want  []string
	}{
		{name: "newest first", user: "u1", limit: 10, want: []string{"new", "mid", "old"}},
		{name: "limit applies", user: "u1", limit: 2, want: []string{"new", "mid"}},
		{name: "default limit", user: "u1", limit: 0, want: []string{"new", "mid", "old"}},
		{name: "scoped to user", user: "u2", limit: 10, want: []string{"other"}},
		{name: "no history", user: "nobody", limit: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ListRecommendations(ctx, tt.user, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAdapter_UpdatePreviewEnergy(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.SaveRecommendation(ctx, domain.User{ID: "u1"}, sampleRecommendation("rec-1", time.Now())))

	require.NoError(t, a.UpdatePreviewEnergy(ctx, "rec-1", 0.42))

	got, err := a.GetRecommendation(ctx, "u1", "rec-1")
	require.NoError(t, err)
	require.NotNil(t, got.PreviewEnergy)
	assert.InDelta(t, 0.42, *got.PreviewEnergy, 1e-9)

	assert.ErrorIs(t, a.UpdatePreviewEnergy(ctx, "missing", 0.1), domain.ErrNotFound)
}

func TestAdapter_Ping(t *testing.T) {
	a, err := NewAdapter(":memory:")
	require.NoError(t, err)

	require.NoError(t, a.Ping(context.Background()))

	require.NoError(t, a.Close())
	assert.Error(t, a.Ping(context.Background()))
}
