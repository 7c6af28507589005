// Package credentials acquires and caches bearer tokens for the ingestion
// service. The reporter holds a provider by reference; it never embeds one.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Static is a provider returning a fixed token. Used when the caller
// already holds a long-lived credential (SAWMILL_API_TOKEN).
type Static struct {
	token string
}

// NewStatic creates a provider for a pre-issued token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the fixed token.
func (s *Static) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

// ClientSecret acquires tokens from a token endpoint using the OAuth2
// client-credentials flow. The token is fetched lazily on first use and
// cached until shortly before expiry. Safe for concurrent use.
type ClientSecret struct {
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	margin       time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClientSecret creates a client-credentials provider. A nil client gets
// a default with a 30-second timeout.
func NewClientSecret(tokenURL, clientID, clientSecret string, client *http.Client) *ClientSecret {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ClientSecret{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
		margin:       30 * time.Second,
	}
}

// Token returns the cached token, refreshing it when it is within the
// expiry margin.
func (p *ClientSecret) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt.Add(-p.margin)) {
		return p.token, nil
	}

	if err := p.refresh(ctx); err != nil {
		return "", err
	}
	return p.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *ClientSecret) refresh(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("credentials: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("credentials: token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("credentials: token request failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("credentials: decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("credentials: token response has no access_token")
	}

	p.token = tr.AccessToken
	p.expiresAt = tokenExpiry(tr)
	return nil
}

// tokenExpiry resolves when the token stops being usable. Preference order:
// the endpoint's expires_in, then the token's own exp claim, then a short
// fallback that forces a refresh on the next call past one minute.
func tokenExpiry(tr tokenResponse) time.Time {
	if tr.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(tr.AccessToken); ok {
		return exp
	}
	return time.Now().Add(time.Minute)
}

// jwtExpiry extracts the exp claim without verifying the signature — the
// ingestion service verifies; we only need the refresh deadline.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
