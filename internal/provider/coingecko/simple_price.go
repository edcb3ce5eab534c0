package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"priceboard/internal/provider"
	"priceboard/internal/provider/cache"
)

// simplePrice is the /simple/price body: coin id -> currency -> price.
type simplePrice map[string]map[string]*float64

func decodeSimplePrice(b []byte) (simplePrice, error) {
	var sp simplePrice
	if err := json.Unmarshal(b, &sp); err != nil {
		return nil, fmt.Errorf("decoding simple price: %w", err)
	}
	return sp, nil
}

// Quote resolves every symbol of the crypto batch (symbol -> coin id) in a
// single upstream call. It never fails as a whole: each symbol gets a result.
func (c *Client) Quote(ctx context.Context, batch map[string]string) []provider.Result {
	if len(batch) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(batch))
	ids := make([]string, 0, len(batch))
	for sym, id := range batch {
		symbols = append(symbols, sym)
		ids = append(ids, id)
	}
	sort.Strings(symbols)

	key := cache.Key(Name, ids)
	body, hit, err := load(ctx, c.quotes, key, func(ctx context.Context) ([]byte, error) {
		b, err := c.fetchSimplePrice(ctx, ids)
		if err != nil {
			return nil, err
		}
		// only decodable bodies are worth remembering
		if _, err := decodeSimplePrice(b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		perr := provider.Classify(provider.AssetCrypto, err)
		c.log.WithFields(logrus.Fields{"provider": Name, "key": key}).Warnf("crypto batch failed: %v", err)
		return provider.FailAll(symbols, perr)
	}
	if hit {
		c.log.WithField("key", key).Debug("crypto quotes served from cache")
	}

	data, err := decodeSimplePrice(body)
	if err != nil {
		return provider.FailAll(symbols, provider.Classify(provider.AssetCrypto, err))
	}
	out := make([]provider.Result, 0, len(symbols))
	for _, sym := range symbols {
		id := batch[sym]
		p := data[id]["usd"]
		if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
			out = append(out, provider.Fail(sym, &provider.Error{
				Kind: provider.NoData, Asset: provider.AssetCrypto,
				Err: fmt.Errorf("no usd price for %s", id),
			}))
			continue
		}
		out = append(out, provider.OK(sym, *p, Name))
	}
	return out
}

func (c *Client) fetchSimplePrice(ctx context.Context, ids []string) ([]byte, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	q := url.Values{}
	q.Set("ids", strings.Join(sorted, ","))
	q.Set("vs_currencies", "usd")
	return c.get(ctx, "/api/v3/simple/price", q)
}
