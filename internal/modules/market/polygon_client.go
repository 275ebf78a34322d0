package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultPolygonBaseURL = "https://api.polygon.io"

// QuoteProvider fetches a fresh quote for a symbol from an external source
type QuoteProvider interface {
	Fetch(ctx context.Context, symbol string) (*ProviderQuote, error)
}

// PolygonConfig holds Polygon.io client configuration
type PolygonConfig struct {
	APIKey  string
	BaseURL string        // defaults to api.polygon.io
	Timeout time.Duration // defaults to 10s
}

// PolygonClient fetches previous-close aggregates from Polygon.io
type PolygonClient struct {
	client *resty.Client
	apiKey string
	log    zerolog.Logger
}

// NewPolygonClient creates a new Polygon.io client
func NewPolygonClient(cfg PolygonConfig, log zerolog.Logger) *PolygonClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPolygonBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &PolygonClient{
		client: client,
		apiKey: cfg.APIKey,
		log:    log.With().Str("client", "polygon").Logger(),
	}
}

// polygonPrevClose is the response shape of /v2/aggs/ticker/{symbol}/prev
type polygonPrevClose struct {
	Status  string `json:"status"`
	Results []struct {
		Close  float64 `json:"c"`
		Open   float64 `json:"o"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// Fetch retrieves the previous-close aggregate for a symbol
func (c *PolygonClient) Fetch(ctx context.Context, symbol string) (*ProviderQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.apiKey).
		Get(fmt.Sprintf("/v2/aggs/ticker/%s/prev", symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("polygon API error %d for %s: %s", resp.StatusCode(), symbol, resp.String())
	}

	var data polygonPrevClose
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("failed to parse quote response for %s: %w", symbol, err)
	}

	if len(data.Results) == 0 {
		return nil, fmt.Errorf("no results for %s", symbol)
	}

	result := data.Results[0]
	return &ProviderQuote{
		Price:  result.Close,
		Open:   result.Open,
		Volume: int64(result.Volume),
	}, nil
}
