package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

const defaultPreviewTimeout = 15 * time.Second

// Analyzer computes a loudness energy in [0,1] for a preview clip.
type Analyzer interface {
	Analyze(ctx context.Context, previewURL string) (float64, error)
}

// PreviewAnalyzer downloads an MP3 preview and measures its RMS loudness.
type PreviewAnalyzer struct {
	client *http.Client
}

// NewPreviewAnalyzer returns an analyzer using hc, or a client with a 15s
// timeout when hc is nil.
func NewPreviewAnalyzer(hc *http.Client) *PreviewAnalyzer {
	if hc == nil {
		hc = &http.Client{Timeout: defaultPreviewTimeout}
	}
	return &PreviewAnalyzer{client: hc}
}

func (a *PreviewAnalyzer) Analyze(ctx context.Context, previewURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return 0, fmt.Errorf("preview request: %w", err)
	}
	// #nosec G107 -- URL is a preview URL from the catalog provider's response
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("preview decode failed: %w", err)
	}
	return pcmEnergy(decoder)
}

// pcmEnergy reads signed 16-bit little-endian PCM and returns RMS / 32768.
func pcmEnergy(src io.Reader) (float64, error) {
	buf := make([]byte, 4096)
	var sumSquares float64
	var count float64
	var carry []byte

	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if len(carry) > 0 {
				chunk = append(carry, chunk...)
				carry = nil
			}
			i := 0
			for ; i+1 < len(chunk); i += 2 {
				sample := int16(chunk[i]) | int16(chunk[i+1])<<8
				val := float64(sample)
				sumSquares += val * val
				count++
			}
			if i < len(chunk) {
				carry = []byte{chunk[i]}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("preview read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, errors.New("preview contains no samples")
	}

	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}
