// Package coingecko prices crypto holdings and the BTC reference series
// through the CoinGecko demo API.
package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"priceboard/internal/httpx"
	"priceboard/internal/provider"
	"priceboard/internal/provider/cache"
)

const (
	// Name is the source tag attached to every CoinGecko quote.
	Name = "coingecko"

	defaultBaseURL = "https://api.coingecko.com"
	apiKeyHeader   = "x-cg-demo-api-key"
	maxBody        = 4 << 20
)

// Client is a client for the CoinGecko API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// apiKey is the demo key; an empty key fails every call.
	apiKey string
	// httpClient performs the requests.
	httpClient httpx.Doer
	// header contains additional headers to be sent with each request.
	header http.Header
	// quotes memoizes spot-price bodies, series memoizes market-chart bodies.
	quotes *cache.TTL[[]byte]
	series *cache.TTL[[]byte]
	log    logrus.FieldLogger
}

// Option is a configuration option for the CoinGecko client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithQuoteCache shares a spot-quote cache with the client.
func WithQuoteCache(tc *cache.TTL[[]byte]) Option {
	return func(c *Client) { c.quotes = tc }
}

// WithSeriesCache shares a time-series cache with the client.
func WithSeriesCache(tc *cache.TTL[[]byte]) Option {
	return func(c *Client) { c.series = tc }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a CoinGecko client. Without a cache option every call goes upstream.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		log:        logrus.StandardLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns the provider's source tag.
func (c *Client) Name() string { return Name }

// get performs an authenticated GET and returns the 2xx body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("coingecko: %w", provider.ErrMissingCredential)
	}
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", httpx.StripURL(err))
	}
	return httpx.ReadOK(res, maxBody)
}

// load consults tc before calling fetch; a nil cache always fetches.
func load(ctx context.Context, tc *cache.TTL[[]byte], key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if tc == nil {
		b, err := fetch(ctx)
		return b, false, err
	}
	return tc.Load(ctx, key, fetch)
}
