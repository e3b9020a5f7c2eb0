package songcatalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// tokenExpiryMargin refreshes a token this long before it actually expires
const tokenExpiryMargin = 30 * time.Second

// TokenCache holds the current access token and when it stops being valid
type TokenCache struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

// Get returns the token if it is still valid at now
func (t *TokenCache) Get(now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value == "" || !now.Add(tokenExpiryMargin).Before(t.expiresAt) {
		return "", false
	}
	return t.value, true
}

func (t *TokenCache) Set(value string, expiresAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
	t.expiresAt = expiresAt
}

func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = ""
	t.expiresAt = time.Time{}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// Token returns a valid access token, fetching a new one with the client
// credentials grant when the cached one is missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(c.clock.Now()); ok {
		return token, nil
	}

	// One refresh at a time; later callers pick up the fresh token
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if token, ok := c.tokens.Get(c.clock.Now()); ok {
		return token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.config.ClientID + ":" + c.config.ClientSecret))

	body, err := c.Post(ctx, c.config.TokenURL, strings.NewReader(form.Encode()), map[string]string{
		"Content-Type":  formContentType,
		"Authorization": "Basic " + credentials,
	})
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	expiresAt := c.clock.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.tokens.Set(resp.AccessToken, expiresAt)

	log.Debug().Time("expires_at", expiresAt).Msg("refreshed song catalog token")
	return resp.AccessToken, nil
}
