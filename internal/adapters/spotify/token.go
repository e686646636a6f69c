package spotify

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/observability"
)

// tokenSource caches a client-credentials token until it nears expiry.
// Unlike oauth2.ReuseTokenSource it can be invalidated after a 401.
type tokenSource struct {
	cfg        *clientcredentials.Config
	httpClient *http.Client

	mu  sync.Mutex
	tok *oauth2.Token
}

func newTokenSource(clientID, clientSecret, tokenURL string, hc *http.Client) *tokenSource {
	return &tokenSource{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: hc,
	}
}

// Token returns the cached token or exchanges credentials for a new one.
// Exchange failures are reported as domain.ErrProviderAuth.
func (s *tokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok.Valid() {
		return s.tok, nil
	}
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		observability.SpotifyTokenExchanges.WithLabelValues("missing_credentials").Inc()
		return nil, fmt.Errorf("token exchange: missing client credentials: %w", domain.ErrProviderAuth)
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	tok, err := s.cfg.Token(ctx)
	if err != nil {
		observability.SpotifyTokenExchanges.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("token exchange: %w: %w", domain.ErrProviderAuth, err)
	}
	observability.SpotifyTokenExchanges.WithLabelValues("success").Inc()
	s.tok = tok
	return tok, nil
}

// Invalidate drops the cached token so the next call exchanges again.
func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
}
