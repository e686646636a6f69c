package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

// testTaxonomy gives every label its own axis so test vectors can select labels exactly.
var testTaxonomy = domain.Taxonomy{
	Colors:  []domain.Label{{Name: "warm", Prompt: "warm colors"}, {Name: "blue", Prompt: "blue colors"}},
	Objects: []domain.Label{{Name: "beach", Prompt: "a beach"}, {Name: "city", Prompt: "a city"}},
	Mood:    []domain.Label{{Name: "joyful", Prompt: "a joyful mood"}, {Name: "calm", Prompt: "a calm mood"}},
	Scene:   []domain.Label{{Name: "outdoor", Prompt: "an outdoor scene"}, {Name: "indoor", Prompt: "an indoor scene"}},
}

func testPrompts() []string {
	var prompts []string
	for _, c := range domain.Categories {
		for _, l := range testTaxonomy.Labels(c) {
			prompts = append(prompts, l.Prompt)
		}
	}
	return prompts
}

// vectorFor returns the sum of the one-hot axes of the given prompts.
func vectorFor(prompts ...string) []float32 {
	all := testPrompts()
	v := make([]float32, len(all)+1)
	for _, want := range prompts {
		for i, p := range all {
			if p == want {
				v[i] = 1
			}
		}
	}
	return v
}

// offAxisVector matches no label at all.
func offAxisVector() []float32 {
	v := make([]float32, len(testPrompts())+1)
	v[len(v)-1] = 1
	return v
}

type fakeEmbedder struct {
	mu         sync.Mutex
	imageVec   []float32
	imageErr   error
	block      bool
	imageCalls int
	textCalls  int
}

func (f *fakeEmbedder) EmbedImage(ctx context.Context, img domain.ImageInput) ([]float32, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.imageVec, f.imageErr
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()
	return vectorFor(text), nil
}

type fakeStore struct {
	mu     sync.Mutex
	stored []domain.ImageUpload
	err    error
	images map[string]domain.ImageInput
}

func (f *fakeStore) StoreImage(ctx context.Context, img domain.ImageUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, img)
	return "images/" + img.UserID + "/test.png", nil
}

func (f *fakeStore) LoadImage(ctx context.Context, ref string) (domain.ImageInput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[ref]
	if !ok {
		return domain.ImageInput{}, domain.ErrNotFound
	}
	return img, nil
}

type fakeCatalog struct {
	mu     sync.Mutex
	tracks []domain.TrackCandidate
	err    error
	block  bool
	panics bool
	calls  int
	last   domain.CatalogQuery
}

func (f *fakeCatalog) Recommend(ctx context.Context, q domain.CatalogQuery) ([]domain.TrackCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.last = q
	f.mu.Unlock()
	if f.panics {
		panic("catalog exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.tracks, f.err
}

func (f *fakeCatalog) AvailableGenres(ctx context.Context) ([]string, error) {
	return domain.DefaultGenres, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu     sync.Mutex
	err    error
	panics bool
	saved  []domain.Recommendation
	calls  int
}

func (f *fakeSink) SaveRecommendation(ctx context.Context, user domain.User, rec domain.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panics {
		panic("sink exploded")
	}
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, rec)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.PreviewJob
}

func (f *fakeQueue) Submit(job domain.PreviewJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

type transition struct{ from, to domain.State }

type recordingObserver struct {
	mu          sync.Mutex
	transitions []transition
	finished    []error
	persistErrs []error
}

func (o *recordingObserver) Transition(_ string, from, to domain.State, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition{from, to})
}

func (o *recordingObserver) Finished(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, err)
}

func (o *recordingObserver) PersistenceFailed(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persistErrs = append(o.persistErrs, err)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 240, G: 140, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testClassifiers(t *testing.T, emb *fakeEmbedder) *ClassifierSet {
	t.Helper()
	set, err := BuildClassifiers(context.Background(), emb, testTaxonomy, DefaultClassifierConfig())
	if err != nil {
		t.Fatalf("build classifiers: %v", err)
	}
	return set
}
