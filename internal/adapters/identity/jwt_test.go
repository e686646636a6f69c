package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const testSecret = "0123456789abcdef0123"

func newTestVerifier(t *testing.T, cfg Config) *Verifier {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = testSecret
	}
	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	return v
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	v := newTestVerifier(t, Config{Issuer: "accounts", Audience: "vibelens"})

	token, err := v.Issue(domain.User{ID: "u-1", Email: "a@example.com"}, time.Minute)
	require.NoError(t, err)

	user, err := v.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "u-1", Email: "a@example.com"}, user)
}

func TestAuthenticate_Rejects(t *testing.T) {
	v := newTestVerifier(t, Config{Issuer: "accounts"})
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    "accounts",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: "  "},
		{name: "garbage", token: "not-a-jwt"},
		{
			name:  "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("another-secret-value"), &Claims{RegisteredClaims: valid()}),
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{RegisteredClaims: func() jwt.RegisteredClaims {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
				return c
			}()}),
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{RegisteredClaims: func() jwt.RegisteredClaims {
				c := valid()
				c.ExpiresAt = nil
				return c
			}()}),
		},
		{
			name: "wrong issuer",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{RegisteredClaims: func() jwt.RegisteredClaims {
				c := valid()
				c.Issuer = "elsewhere"
				return c
			}()}),
		},
		{
			name: "no subject",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{RegisteredClaims: func() jwt.RegisteredClaims {
				c := valid()
				c.Subject = ""
				return c
			}()}),
		},
		{
			name:  "other hmac algorithm",
			token: sign(t, jwt.SigningMethodHS512, []byte(testSecret), &Claims{RegisteredClaims: valid()}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Authenticate(context.Background(), tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}
