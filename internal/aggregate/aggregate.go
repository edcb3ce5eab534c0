// Package aggregate resolves a holdings list into one prices/errors response
// by fanning the classified batches out to the provider adapters.
package aggregate

import (
    "context"
    "fmt"
    "sort"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "priceboard/internal/asset"
    "priceboard/internal/classify"
    "priceboard/internal/provider"
)

// CryptoQuoter prices a crypto batch (symbol -> coin id) in one call.
type CryptoQuoter interface {
    Name() string
    Quote(ctx context.Context, batch map[string]string) []provider.Result
}

// StockQuoter prices equities, one result per symbol.
type StockQuoter interface {
    Name() string
    Quote(ctx context.Context, symbols []string) []provider.Result
}

// RateQuoter prices metals and forex pairs from one rate table.
type RateQuoter interface {
    Name() string
    Quote(ctx context.Context, metals []string, pairs []classify.ForexPair) []provider.Result
}

// PriceEntry is one resolved price in the response.
type PriceEntry struct {
    Price  float64 `json:"price"`
    Source string  `json:"source"`
}

// Response is the /prices body.
type Response struct {
    Prices    map[string]PriceEntry `json:"prices"`
    Errors    map[string]string     `json:"errors"`
    UpdatedAt time.Time             `json:"updatedAt"`
}

// NewResponse returns a response with empty, non-nil maps.
func NewResponse() Response {
    return Response{Prices: map[string]PriceEntry{}, Errors: map[string]string{}}
}

// Merge folds adapter results into r. A success replaces an earlier error for
// the same symbol; an error never overwrites a price.
func (r *Response) Merge(results ...provider.Result) {
    for _, res := range results {
        if res.Symbol == "" { continue }
        if res.Err != nil {
            r.fail(res.Symbol, res.Err.Reason())
            continue
        }
        delete(r.Errors, res.Symbol)
        r.Prices[res.Symbol] = PriceEntry{Price: res.Quote.Price, Source: res.Quote.Source}
    }
}

func (r *Response) fail(symbol, reason string) {
    if _, priced := r.Prices[symbol]; priced { return }
    r.Errors[symbol] = reason
}

// Check returns the requested non-empty symbols that are in both maps or in
// neither, sorted. A well-formed response yields nil.
func (r Response) Check(reqs []classify.Request) []string {
    seen := map[string]struct{}{}
    var bad []string
    for _, q := range reqs {
        sym := asset.NormalizeSymbol(q.Symbol)
        if sym == "" { continue }
        if _, dup := seen[sym]; dup { continue }
        seen[sym] = struct{}{}
        _, p := r.Prices[sym]
        _, e := r.Errors[sym]
        if p == e { bad = append(bad, sym) }
    }
    sort.Strings(bad)
    return bad
}

// Aggregator owns the three provider batches. A nil quoter fails its whole
// batch with the family's API error.
type Aggregator struct {
    Crypto CryptoQuoter
    Stocks StockQuoter
    Rates  RateQuoter

    Log logrus.FieldLogger
    // Now is the clock; nil means time.Now.
    Now func() time.Time
}

func (a *Aggregator) now() time.Time {
    if a.Now != nil { return a.Now() }
    return time.Now()
}

func (a *Aggregator) log() logrus.FieldLogger {
    if a.Log != nil { return a.Log }
    return logrus.StandardLogger()
}

// Resolve classifies reqs, prices every accepted symbol and returns the merged
// response. It never fails: every non-empty symbol ends up in exactly one of
// Prices or Errors.
func (a *Aggregator) Resolve(ctx context.Context, reqs []classify.Request) Response {
    b := classify.Classify(reqs)
    resp := NewResponse()
    for sym, reason := range b.Errors {
        resp.fail(sym, reason)
    }

    var crypto, stocks, rates []provider.Result
    var g errgroup.Group
    if len(b.Crypto) > 0 {
        g.Go(func() error {
            if a.Crypto == nil {
                crypto = unconfigured(provider.AssetCrypto, cryptoSymbols(b.Crypto))
                return nil
            }
            crypto = a.Crypto.Quote(ctx, b.Crypto)
            return nil
        })
    }
    if len(b.Stocks) > 0 {
        g.Go(func() error {
            if a.Stocks == nil {
                stocks = unconfigured(provider.AssetStock, b.Stocks)
                return nil
            }
            stocks = a.Stocks.Quote(ctx, b.Stocks)
            return nil
        })
    }
    if len(b.Metals) > 0 || len(b.Forex) > 0 {
        g.Go(func() error {
            if a.Rates == nil {
                rates = unconfigured(provider.AssetMetal, b.Metals)
                rates = append(rates, unconfigured(provider.AssetFX, forexSymbols(b.Forex))...)
                return nil
            }
            rates = a.Rates.Quote(ctx, b.Metals, b.Forex)
            return nil
        })
    }
    _ = g.Wait()

    resp.Merge(crypto...)
    resp.Merge(stocks...)
    resp.Merge(rates...)

    // an adapter that skipped a symbol still owes it an answer
    a.settle(&resp, provider.AssetCrypto, cryptoSymbols(b.Crypto))
    a.settle(&resp, provider.AssetStock, b.Stocks)
    a.settle(&resp, provider.AssetMetal, b.Metals)
    a.settle(&resp, provider.AssetFX, forexSymbols(b.Forex))

    resp.UpdatedAt = a.now().UTC()
    a.log().WithFields(logrus.Fields{
        "symbols": len(b.Symbols),
        "prices":  len(resp.Prices),
        "errors":  len(resp.Errors),
    }).Debug("prices resolved")
    return resp
}

func (a *Aggregator) settle(resp *Response, as provider.Asset, symbols []string) {
    for _, sym := range symbols {
        if _, ok := resp.Prices[sym]; ok { continue }
        if _, ok := resp.Errors[sym]; ok { continue }
        a.log().WithField("symbol", sym).Warn("adapter returned no result")
        resp.fail(sym, (&provider.Error{Kind: provider.Upstream, Asset: as}).Reason())
    }
}

func unconfigured(as provider.Asset, symbols []string) []provider.Result {
    err := &provider.Error{Kind: provider.MissingCredential, Asset: as, Err: fmt.Errorf("%s provider not configured: %w", as.Noun, provider.ErrMissingCredential)}
    return provider.FailAll(symbols, err)
}

func cryptoSymbols(batch map[string]string) []string {
    out := make([]string, 0, len(batch))
    for sym := range batch { out = append(out, sym) }
    sort.Strings(out)
    return out
}

func forexSymbols(pairs []classify.ForexPair) []string {
    out := make([]string, 0, len(pairs))
    for _, p := range pairs { out = append(out, p.Symbol) }
    return out
}
