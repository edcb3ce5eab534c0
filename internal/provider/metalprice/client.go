// Package metalprice prices precious metals and forex pairs from one
// USD-based rate table.
package metalprice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"priceboard/internal/httpx"
	"priceboard/internal/provider"
	"priceboard/internal/provider/cache"
)

const (
	// Name is the source tag attached to every metal and FX quote.
	Name = "metalpriceapi"

	defaultBaseURL = "https://api.metalpriceapi.com"
	baseCurrency   = "USD"
	maxBody        = 1 << 20
)

// Client is a client for the metalpriceapi.com latest-rates endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpx.Doer
	rates      *cache.TTL[[]byte]
	log        logrus.FieldLogger
}

// Option is a configuration option for the metalprice client.
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
	return func(c *Client) { c.httpClient = httpClient }
}

// WithQuoteCache shares a rate-table cache with the client.
func WithQuoteCache(tc *cache.TTL[[]byte]) Option {
	return func(c *Client) { c.rates = tc }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a metalprice client.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		log:        logrus.StandardLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns the provider's source tag.
func (c *Client) Name() string { return Name }

// latest is the /v1/latest body. Rates are units of currency per 1 USD.
type latest struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	} `json:"error"`
}

func decodeLatest(b []byte) (*latest, error) {
	var l latest
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("decoding latest rates: %w", err)
	}
	if !l.Success {
		if l.Error != nil {
			return nil, fmt.Errorf("metalpriceapi %d: %s", l.Error.StatusCode, l.Error.Message)
		}
		return nil, fmt.Errorf("metalpriceapi: unsuccessful response")
	}
	return &l, nil
}

// latestRates returns USD-based rates for currencies, from the cache when fresh.
func (c *Client) latestRates(ctx context.Context, currencies []string) (*latest, error) {
	key := cache.Key(Name, currencies)
	fetch := func(ctx context.Context) ([]byte, error) {
		b, err := c.fetchLatest(ctx, currencies)
		if err != nil {
			return nil, err
		}
		if _, err := decodeLatest(b); err != nil {
			return nil, err
		}
		return b, nil
	}
	var (
		body []byte
		hit  bool
		err  error
	)
	if c.rates == nil {
		body, err = fetch(ctx)
	} else {
		body, hit, err = c.rates.Load(ctx, key, fetch)
	}
	if err != nil {
		return nil, err
	}
	if hit {
		c.log.WithField("key", key).Debug("rates served from cache")
	}
	return decodeLatest(body)
}

func (c *Client) fetchLatest(ctx context.Context, currencies []string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("metalpriceapi: %w", provider.ErrMissingCredential)
	}
	sorted := append([]string(nil), currencies...)
	sort.Strings(sorted)
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("base", baseCurrency)
	q.Set("currencies", strings.Join(sorted, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/latest?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", httpx.StripURL(err))
	}
	return httpx.ReadOK(res, maxBody)
}
