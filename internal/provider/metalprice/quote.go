package metalprice

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"priceboard/internal/classify"
	"priceboard/internal/provider"
)

// Quote prices the metal and forex batches with a single rate-table fetch.
// Metals are quoted in USD per unit (1/rate); a pair BASE/QUOTE is
// rate[QUOTE]/rate[BASE]. Metals come first in the result, then pairs.
func (c *Client) Quote(ctx context.Context, metals []string, pairs []classify.ForexPair) []provider.Result {
	if len(metals) == 0 && len(pairs) == 0 {
		return nil
	}
	currencies := make([]string, 0, len(metals)+2*len(pairs))
	currencies = append(currencies, metals...)
	for _, p := range pairs {
		currencies = append(currencies, p.Base, p.Quote)
	}

	rates, err := c.latestRates(ctx, currencies)
	if err != nil {
		c.log.WithFields(logrus.Fields{"provider": Name, "metals": len(metals), "pairs": len(pairs)}).
			Warnf("rate table failed: %v", err)
		out := provider.FailAll(metals, provider.Classify(provider.AssetMetal, err))
		for _, p := range pairs {
			out = append(out, provider.Fail(p.Symbol, provider.Classify(provider.AssetFX, err)))
		}
		return out
	}

	out := make([]provider.Result, 0, len(metals)+len(pairs))
	for _, m := range metals {
		r, ok := rates.rate(m)
		if !ok || r <= 0 {
			out = append(out, provider.Fail(m, noData(provider.AssetMetal, m)))
			continue
		}
		out = append(out, provider.OK(m, 1/r, Name))
	}
	for _, p := range pairs {
		base, okB := rates.rate(p.Base)
		quote, okQ := rates.rate(p.Quote)
		if !okB || !okQ || base <= 0 {
			out = append(out, provider.Fail(p.Symbol, noData(provider.AssetFX, p.Symbol)))
			continue
		}
		out = append(out, provider.OK(p.Symbol, quote/base, Name))
	}
	return out
}

// rate looks up a currency; the base currency is always 1.
func (l *latest) rate(cur string) (float64, bool) {
	r, ok := l.Rates[cur]
	if !ok && cur == baseCurrency {
		return 1, true
	}
	if !ok || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

func noData(a provider.Asset, symbol string) *provider.Error {
	return &provider.Error{Kind: provider.NoData, Asset: a, Err: fmt.Errorf("no rate for %s", symbol)}
}
