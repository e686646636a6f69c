package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

func newTestExtractor(t *testing.T, emb *fakeEmbedder, store *fakeStore, opts ...ExtractorOption) *Extractor {
	t.Helper()
	classifiers := testClassifiers(t, emb)
	opts = append([]ExtractorOption{WithExtractorLogger(zerolog.Nop()), WithImageLoader(store)}, opts...)
	return NewExtractor(emb, store, classifiers, opts...)
}

func TestExtractor_Analyze(t *testing.T) {
	emb := &fakeEmbedder{imageVec: vectorFor("warm colors", "a joyful mood", "an outdoor scene")}
	store := &fakeStore{}
	e := newTestExtractor(t, emb, store)

	a, err := e.Analyze(context.Background(), domain.ImageUpload{UserID: "u1", Filename: "pic.png", Data: testPNG(t)})
	require.NoError(t, err)

	assert.Equal(t, "images/u1/test.png", a.Reference)
	assert.Equal(t, []string{"warm"}, a.Features.Colors)
	assert.Equal(t, []string{"joyful"}, a.Features.Mood)
	assert.Empty(t, a.Features.Objects)
	assert.Equal(t, "outdoor", a.Features.Scene)

	require.Len(t, store.stored, 1)
	assert.Equal(t, "image/png", store.stored[0].MIMEType)
}

func TestExtractor_AmbiguousImageYieldsEmptyFeatures(t *testing.T) {
	emb := &fakeEmbedder{imageVec: offAxisVector()}
	e := newTestExtractor(t, emb, &fakeStore{})

	f, err := e.Extract(context.Background(), domain.ImageUpload{UserID: "u1", Data: testPNG(t)})
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	assert.Equal(t, domain.SceneUnknown, f.Scene)
}

func TestExtractor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		emb     *fakeEmbedder
		store   *fakeStore
		data    func(t *testing.T) []byte
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "undecodable bytes",
			emb:     &fakeEmbedder{imageVec: offAxisVector()},
			store:   &fakeStore{},
			data:    func(*testing.T) []byte { return []byte("definitely not an image") },
			wantErr: domain.ErrExtraction,
		},
		{
			name:    "truncated png",
			emb:     &fakeEmbedder{imageVec: offAxisVector()},
			store:   &fakeStore{},
			data:    func(t *testing.T) []byte { return testPNG(t)[:12] },
			wantErr: domain.ErrExtraction,
		},
		{
			name:    "embedder error",
			emb:     &fakeEmbedder{imageErr: errors.New("quota exceeded")},
			store:   &fakeStore{},
			data:    testPNG,
			wantErr: domain.ErrExtraction,
		},
		{
			name:    "embedder returns nothing",
			emb:     &fakeEmbedder{},
			store:   &fakeStore{},
			data:    testPNG,
			wantErr: domain.ErrExtraction,
		},
		{
			name:    "wrong embedding dimension",
			emb:     &fakeEmbedder{imageVec: []float32{1, 2}},
			store:   &fakeStore{},
			data:    testPNG,
			wantErr: domain.ErrExtraction,
		},
		{
			name:    "embedding exceeds its deadline",
			emb:     &fakeEmbedder{block: true},
			store:   &fakeStore{},
			data:    testPNG,
			timeout: 10 * time.Millisecond,
			wantErr: domain.ErrExtractionTimeout,
		},
		{
			name:    "image store failure",
			emb:     &fakeEmbedder{imageVec: offAxisVector()},
			store:   &fakeStore{err: errors.New("disk full")},
			data:    testPNG,
			wantErr: domain.ErrExtraction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var opts []ExtractorOption
			if tc.timeout > 0 {
				opts = append(opts, WithEmbeddingTimeout(tc.timeout))
			}
			e := newTestExtractor(t, tc.emb, tc.store, opts...)

			_, err := e.Extract(context.Background(), domain.ImageUpload{UserID: "u1", Data: tc.data(t)})
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestExtractor_CanceledCallerAbandonsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{block: true}
	e := newTestExtractor(t, emb, &fakeStore{}, WithEmbeddingTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := e.Extract(ctx, domain.ImageUpload{UserID: "u1", Data: testPNG(t)})
	require.ErrorIs(t, err, domain.ErrCanceled)
	assert.NotErrorIs(t, err, domain.ErrExtractionTimeout)
}

func TestExtractor_ExtractReference(t *testing.T) {
	store := &fakeStore{images: map[string]domain.ImageInput{}}
	emb := &fakeEmbedder{imageVec: vectorFor("a city", "an indoor scene")}
	e := newTestExtractor(t, emb, store)
	store.images["images/u1/old.png"] = domain.ImageInput{Reference: "images/u1/old.png", Data: testPNG(t)}

	f, err := e.ExtractReference(context.Background(), "images/u1/old.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, f.Objects)
	assert.Equal(t, "indoor", f.Scene)

	_, err = e.ExtractReference(context.Background(), "images/u1/missing.png")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
