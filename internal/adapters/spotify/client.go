package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/core/ports"
	"github.com/ewilliams-labs/vibelens/internal/observability"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultTimeout  = 10 * time.Second
)

// Config configures the Spotify adapter.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// BreakerTrips consecutive failed requests open the circuit for BreakerTimeout.
	BreakerTrips   uint32
	BreakerTimeout time.Duration
}

// Client is an HTTP client for the Spotify Web API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	tokens      *tokenSource
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	logger      zerolog.Logger
}

// compile-time interface assertion
var _ ports.CatalogProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient constructs a Spotify client using client-credentials auth.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.RetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tokens = newTokenSource(cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, c.httpClient)
	c.breaker = newBreaker(cfg.BreakerTrips, cfg.BreakerTimeout, c.logger)
	return c
}

// apiError is the Spotify error envelope.
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// getJSON performs an authenticated GET and decodes a 200 response into out.
// A 401 invalidates the cached token and the request is replayed once.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.authorizedGet(ctx, target)
		if err != nil {
			observability.SpotifyRequests.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("spotify adapter: %s: %w", endpoint, err)
		}
		observability.SpotifyRequests.WithLabelValues(endpoint, statusClass(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.tokens.Invalidate()
			if attempt == 0 {
				c.logger.Warn().Str("endpoint", endpoint).Msg("spotify rejected bearer token, refreshing")
				continue
			}
			return fmt.Errorf("spotify adapter: %s: bearer token rejected after refresh: %w", endpoint, domain.ErrProviderAuth)
		}

		err = decodeResponse(resp, out)
		if err != nil {
			return fmt.Errorf("spotify adapter: %s: %w", endpoint, err)
		}
		return nil
	}
}

func (c *Client) authorizedGet(ctx context.Context, target string) (*http.Response, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	return c.send(req)
}

// send runs the retrying request through the circuit breaker.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.doRequestWithRetry(req)
	}
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.doRequestWithRetry(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("circuit %s: %w", c.breaker.State(), err)
	}
	return resp, err
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
