package provider

import (
    "errors"
    "fmt"
)

// Quote is the normalized price record every adapter produces.
type Quote struct {
    Symbol string  `json:"-"`
    Price  float64 `json:"price"`
    Source string  `json:"source"`
}

// Asset names the asset family an adapter error is reported for. Title is used
// in "<Title> API error", Noun in "No <Noun> price".
type Asset struct {
    Title string
    Noun  string
}

var (
    AssetCrypto = Asset{Title: "Crypto", Noun: "crypto"}
    AssetStock  = Asset{Title: "Stock", Noun: "stock"}
    AssetMetal  = Asset{Title: "Metal", Noun: "metal"}
    AssetFX     = Asset{Title: "FX", Noun: "FX"}
)

// Kind classifies why a symbol could not be priced.
type Kind int

const (
    // Upstream covers transport failures, non-2xx responses and malformed bodies.
    Upstream Kind = iota
    // MissingCredential means the provider's API key is not configured.
    MissingCredential
    // RateLimited means the upstream (or the local limiter) refused the call.
    RateLimited
    // NoData means the upstream answered but carried no usable price.
    NoData
)

var (
    ErrMissingCredential = errors.New("missing credential")
    ErrRateLimited       = errors.New("rate limited")
    ErrNoData            = errors.New("no usable price")
)

// Error is the typed failure attached to a Result.
type Error struct {
    Kind  Kind
    Asset Asset
    Err   error
}

// Reason is the user-visible classification string for the /prices errors map.
func (e *Error) Reason() string {
    switch e.Kind {
    case RateLimited:
        return "Rate limit"
    case NoData:
        return fmt.Sprintf("No %s price", e.Asset.Noun)
    default:
        return e.Asset.Title + " API error"
    }
}

func (e *Error) Error() string {
    if e.Err == nil { return e.Reason() }
    return e.Reason() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Classify turns an arbitrary adapter error into a typed *Error for asset a.
func Classify(a Asset, err error) *Error {
    var pe *Error
    switch {
    case errors.As(err, &pe):
        return pe
    case errors.Is(err, ErrMissingCredential):
        return &Error{Kind: MissingCredential, Asset: a, Err: err}
    case errors.Is(err, ErrRateLimited):
        return &Error{Kind: RateLimited, Asset: a, Err: err}
    case errors.Is(err, ErrNoData):
        return &Error{Kind: NoData, Asset: a, Err: err}
    default:
        return &Error{Kind: Upstream, Asset: a, Err: err}
    }
}

// Result is the outcome for one requested symbol: a Quote or an Err.
type Result struct {
    Symbol string
    Quote  Quote
    Err    *Error
}

// OK builds a successful result.
func OK(symbol string, price float64, source string) Result {
    return Result{Symbol: symbol, Quote: Quote{Symbol: symbol, Price: price, Source: source}}
}

// Fail builds a failed result.
func Fail(symbol string, err *Error) Result {
    return Result{Symbol: symbol, Err: err}
}

// FailAll applies one batch-wide failure to every symbol.
func FailAll(symbols []string, err *Error) []Result {
    out := make([]Result, 0, len(symbols))
    for _, s := range symbols {
        out = append(out, Fail(s, err))
    }
    return out
}

// DatePoint is a daily series sample keyed by calendar date (YYYY-MM-DD).
type DatePoint struct {
    Time  string  `json:"time"`
    Value float64 `json:"value"`
}

// UnixPoint is a series sample keyed by unix seconds.
type UnixPoint struct {
    Time  int64   `json:"time"`
    Value float64 `json:"value"`
}
