package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"priceboard/internal/provider"
)

const pricePath = `$["Global Quote"]["05. price"]`

// Quote resolves each stock symbol with its own GLOBAL_QUOTE call. Results
// come back in the order of symbols and every symbol gets one.
func (c *Client) Quote(ctx context.Context, symbols []string) []provider.Result {
	out := make([]provider.Result, len(symbols))
	var g errgroup.Group
	g.SetLimit(c.parallel)
	for i, sym := range symbols {
		g.Go(func() error {
			out[i] = c.quoteOne(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) quoteOne(ctx context.Context, symbol string) provider.Result {
	key := Name + ":" + symbol
	body, hit, err := load(ctx, c.quotes, key, func(ctx context.Context) ([]byte, error) {
		q := url.Values{}
		q.Set("function", "GLOBAL_QUOTE")
		q.Set("symbol", symbol)
		return c.query(ctx, q)
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"provider": Name, "symbol": symbol}).Warnf("stock quote failed: %v", err)
		return provider.Fail(symbol, provider.Classify(provider.AssetStock, err))
	}
	if hit {
		c.log.WithField("key", key).Debug("stock quote served from cache")
	}
	price, err := extractPrice(body)
	if err != nil {
		return provider.Fail(symbol, provider.Classify(provider.AssetStock, err))
	}
	return provider.OK(symbol, price, Name)
}

// extractPrice reads "Global Quote"."05. price". A missing, empty or
// non-numeric price is ErrNoData.
func extractPrice(body []byte) (float64, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return 0, fmt.Errorf("decoding global quote: %w", err)
	}
	jval, err := jsonpath.Get(pricePath, jobj)
	if err != nil {
		return 0, fmt.Errorf("global quote %v: %w", err, provider.ErrNoData)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	var price float64
	switch v := jval.(type) {
	case string:
		price, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("price %q: %w", v, provider.ErrNoData)
		}
	case float64:
		price = v
	default:
		return 0, fmt.Errorf("price %v: %w", jval, provider.ErrNoData)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %v: %w", price, provider.ErrNoData)
	}
	return price, nil
}
