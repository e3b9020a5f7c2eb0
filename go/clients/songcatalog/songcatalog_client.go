// Package songcatalog is a client for the third-party music catalog used to
// seed the song table.
package songcatalog

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/clients"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	RequestsPerSecond float64
	Burst             int
	Clock             clockwork.Clock
}

func DefaultConfig() Config {
	return Config{
		BaseURL:           BaseURL,
		TokenURL:          TokenURL,
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

type Client struct {
	*clients.BaseClient
	config Config
	clock  clockwork.Clock

	tokens    *TokenCache
	refreshMu sync.Mutex
}

func NewClient(config Config) *Client {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	client := &Client{
		BaseClient: clients.NewBaseClient(config.BaseURL),
		config:     config,
		clock:      config.Clock,
		tokens:     &TokenCache{},
	}

	client.SetHeader(JsonHeader, JsonContentType)
	if config.RequestsPerSecond > 0 {
		client.SetRateLimit(rate.Limit(config.RequestsPerSecond), config.Burst)
	}

	return client
}

// authorizedGet sends a GET with the bearer token, refreshing it once if the
// catalog rejects it.
func (c *Client) authorizedGet(ctx context.Context, endpoint string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, err
		}

		body, err := c.Get(ctx, endpoint, map[string]string{"Authorization": "Bearer " + token})
		var apiErr *clients.APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
			continue
		}
		return body, err
	}
}
