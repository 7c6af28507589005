package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticToken(t *testing.T) {
	p := NewStatic("fixed-token")
	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", token)
}

func tokenServer(t *testing.T, requests *atomic.Int64, body map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-1", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSecretCachesToken(t *testing.T) {
	var requests atomic.Int64
	srv := tokenServer(t, &requests, map[string]any{
		"access_token": "fresh-token",
		"expires_in":   3600,
	})

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	token, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	assert.Equal(t, int64(1), requests.Load(), "second call must hit the cache")
}

func TestClientSecretRefreshesInsideMargin(t *testing.T) {
	var requests atomic.Int64
	// expires_in of 1s is inside the 30s refresh margin, so every call
	// fetches a new token.
	srv := tokenServer(t, &requests, map[string]any{
		"access_token": "short-lived",
		"expires_in":   1,
	})

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	_, err := p.Token(context.Background())
	require.NoError(t, err)
	_, err = p.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), requests.Load())
}

func TestClientSecretUsesJWTExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	var requests atomic.Int64
	srv := tokenServer(t, &requests, map[string]any{
		"access_token": signed,
	})

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, signed, token)
	assert.WithinDuration(t, exp, p.expiresAt, time.Second)
}

func TestClientSecretOpaqueTokenFallback(t *testing.T) {
	var requests atomic.Int64
	srv := tokenServer(t, &requests, map[string]any{
		"access_token": "opaque-not-a-jwt",
	})

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	before := time.Now()
	_, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(time.Minute), p.expiresAt, time.Second)
}

func TestClientSecretRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad client", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	_, err := p.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClientSecretRejectsMissingAccessToken(t *testing.T) {
	var requests atomic.Int64
	srv := tokenServer(t, &requests, map[string]any{
		"expires_in": 3600,
	})

	p := NewClientSecret(srv.URL, "client-1", "secret-1", srv.Client())

	_, err := p.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access_token")
}
