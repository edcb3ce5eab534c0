// Package alphavantage prices stock holdings and the SPY reference series.
//
// The free tier allows a handful of calls per minute, so every call goes
// through a local token bucket before it reaches the network, and throttle
// notices in an otherwise 200 response are reported as rate limits.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"priceboard/internal/httpx"
	"priceboard/internal/provider"
	"priceboard/internal/provider/cache"
	"priceboard/internal/provider/ratelimit"
)

const (
	// Name is the source tag attached to every Alpha Vantage quote.
	Name = "alphavantage"

	defaultBaseURL = "https://www.alphavantage.co"
	maxBody        = 4 << 20
	// defaultParallel bounds concurrent GLOBAL_QUOTE calls in one batch; one
	// keeps a batch sequential.
	defaultParallel = 1
	// defaultSeriesWait is how long a series call may wait for the local
	// budget before giving up.
	defaultSeriesWait = 5 * time.Second
)

// Client is a client for the Alpha Vantage query API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpx.Doer
	limiter    *ratelimit.TokenBucket
	parallel   int
	seriesWait time.Duration
	quotes     *cache.TTL[[]byte]
	series     *cache.TTL[[]byte]
	log        logrus.FieldLogger
}

// Option is a configuration option for the Alpha Vantage client.
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

// WithLimiter sets the local call budget. A nil bucket never limits.
func WithLimiter(tb *ratelimit.TokenBucket) Option {
	return func(c *Client) { c.limiter = tb }
}

// WithParallel bounds how many symbols of one batch are fetched at once.
func WithParallel(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.parallel = n
		}
	}
}

// WithSeriesWait bounds how long DailyCloses waits for the local budget.
// Zero makes it fail fast like a quote.
func WithSeriesWait(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.seriesWait = d
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

// New creates an Alpha Vantage client.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		parallel:   defaultParallel,
		seriesWait: defaultSeriesWait,
		log:        logrus.StandardLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns the provider's source tag.
func (c *Client) Name() string { return Name }

// query calls /query if the local budget has a token right now.
func (c *Client) query(ctx context.Context, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: %w", provider.ErrMissingCredential)
	}
	if !c.limiter.Allow() {
		return nil, fmt.Errorf("alphavantage local budget: %w", provider.ErrRateLimited)
	}
	return c.do(ctx, params)
}

// queryWaiting is query for calls worth a short wait: it blocks up to
// seriesWait for a token.
func (c *Client) queryWaiting(ctx context.Context, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: %w", provider.ErrMissingCredential)
	}
	if c.seriesWait <= 0 {
		return c.query(ctx, params)
	}
	wctx, cancel := context.WithTimeout(ctx, c.seriesWait)
	err := c.limiter.Wait(wctx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("alphavantage local budget: %w", provider.ErrRateLimited)
	}
	return c.do(ctx, params)
}

type notice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// err maps an in-band notice to an error. Note is the throttle message;
// Information is a throttle only when it talks about call frequency or rate
// limits, otherwise (invalid key, premium endpoint, demo key) it is an
// upstream failure like Error Message.
func (n notice) err() error {
	switch {
	case n.Note != "":
		return fmt.Errorf("alphavantage: %w", provider.ErrRateLimited)
	case n.Information != "" && isThrottle(n.Information):
		return fmt.Errorf("alphavantage: %w", provider.ErrRateLimited)
	case n.Information != "":
		return fmt.Errorf("alphavantage notice: %s", n.Information)
	case n.ErrorMessage != "":
		return fmt.Errorf("alphavantage error: %s", n.ErrorMessage)
	}
	return nil
}

func isThrottle(msg string) bool {
	m := strings.ToLower(msg)
	for _, w := range []string{"rate limit", "call frequency", "requests per", "calls per"} {
		if strings.Contains(m, w) {
			return true
		}
	}
	return false
}

// do performs the call. Bodies carrying a notice come back as errors so they
// are never cached.
func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", httpx.StripURL(err))
	}
	b, err := httpx.ReadOK(res, maxBody)
	if err != nil {
		return nil, err
	}
	var n notice
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := n.err(); err != nil {
		return nil, err
	}
	return b, nil
}

func load(ctx context.Context, tc *cache.TTL[[]byte], key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if tc == nil {
		b, err := fetch(ctx)
		return b, false, err
	}
	return tc.Load(ctx, key, fetch)
}
