// Package series serves the /market reference series with a last-good
// fallback so that provider outages degrade to stale data instead of errors.
package series

import (
    "context"
    "fmt"
    "strings"
    "sync/atomic"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "priceboard/internal/provider"
)

// EquitySource yields the daily equity index series (SPY).
type EquitySource interface {
    DailyCloses(ctx context.Context, symbol string) ([]provider.DatePoint, error)
}

// CryptoSource yields the reference crypto series (BTC).
type CryptoSource interface {
    MarketChart(ctx context.Context, coin string, days int) ([]provider.UnixPoint, error)
}

// Payload is the /market body.
type Payload struct {
    SPY   []provider.DatePoint `json:"spy"`
    BTC   []provider.UnixPoint `json:"btc"`
    Stale bool                 `json:"stale"`
    Error string               `json:"error,omitempty"`
}

// LastGood holds the most recent fully successful payload. The zero value is
// empty and ready to use.
type LastGood struct {
    p atomic.Pointer[Payload]
}

// Load returns the stored payload, if any.
func (l *LastGood) Load() (Payload, bool) {
    p := l.p.Load()
    if p == nil { return Payload{}, false }
    return *p, true
}

// Store replaces the stored payload.
func (l *LastGood) Store(p Payload) {
    p.Stale, p.Error = false, ""
    l.p.Store(&p)
}

const (
    defaultEquity = "SPY"
    defaultCoin   = "bitcoin"
    defaultDays   = 90
)

// Service combines the two series.
type Service struct {
    Equity EquitySource
    Crypto CryptoSource
    Last   *LastGood
    Log    logrus.FieldLogger

    // Symbol, Coin and Days select the series; zero values mean SPY, bitcoin, 90.
    Symbol string
    Coin   string
    Days   int
}

func (s *Service) log() logrus.FieldLogger {
    if s.Log != nil { return s.Log }
    return logrus.StandardLogger()
}

func (s *Service) params() (string, string, int) {
    sym, coin, days := s.Symbol, s.Coin, s.Days
    if sym == "" { sym = defaultEquity }
    if coin == "" { coin = defaultCoin }
    if days <= 0 { days = defaultDays }
    return sym, coin, days
}

// Fetch never fails. Both series succeeding refreshes the last-good payload.
// One failing returns the other with an error note and Stale=false. Both
// failing, or a fault in the join, returns the last-good payload (or empty
// series on a cold start) with Stale=true.
func (s *Service) Fetch(ctx context.Context) Payload {
    out, err := s.join(ctx)
    if err != nil {
        return s.fallback(err)
    }
    return out
}

type outcome struct {
    spy    []provider.DatePoint
    btc    []provider.UnixPoint
    spyErr error
    btcErr error
}

func (s *Service) join(ctx context.Context) (p Payload, err error) {
    defer func() {
        if rec := recover(); rec != nil {
            err = fmt.Errorf("series join: %v", rec)
        }
    }()
    sym, coin, days := s.params()

    // a panicking side counts as that side failing
    var o outcome
    var g errgroup.Group
    g.Go(func() error {
        defer func() {
            if rec := recover(); rec != nil { o.spy, o.spyErr = nil, fmt.Errorf("panic: %v", rec) }
        }()
        o.spy, o.spyErr = s.Equity.DailyCloses(ctx, sym)
        return nil
    })
    g.Go(func() error {
        defer func() {
            if rec := recover(); rec != nil { o.btc, o.btcErr = nil, fmt.Errorf("panic: %v", rec) }
        }()
        o.btc, o.btcErr = s.Crypto.MarketChart(ctx, coin, days)
        return nil
    })
    _ = g.Wait()

    switch {
    case o.spyErr != nil && o.btcErr != nil:
        return Payload{}, fmt.Errorf("%s: %v; %s: %v", sym, o.spyErr, coin, o.btcErr)
    case o.spyErr != nil:
        s.log().WithFields(logrus.Fields{"series": sym}).Warnf("series failed: %v", o.spyErr)
        return Payload{SPY: []provider.DatePoint{}, BTC: o.btc, Error: sideError(sym, o.spyErr)}, nil
    case o.btcErr != nil:
        s.log().WithFields(logrus.Fields{"series": coin}).Warnf("series failed: %v", o.btcErr)
        return Payload{SPY: o.spy, BTC: []provider.UnixPoint{}, Error: sideError(coin, o.btcErr)}, nil
    }
    p = Payload{SPY: o.spy, BTC: o.btc}
    if s.Last != nil { s.Last.Store(p) }
    return p, nil
}

func (s *Service) fallback(err error) Payload {
    if s.Last != nil {
        if p, ok := s.Last.Load(); ok {
            s.log().WithField("stale", true).Warnf("serving last good series: %v", err)
            p.Stale = true
            p.Error = "Serving cached data: " + err.Error()
            return p
        }
    }
    s.log().WithField("stale", true).Warnf("no series available: %v", err)
    return Payload{
        SPY:   []provider.DatePoint{},
        BTC:   []provider.UnixPoint{},
        Stale: true,
        Error: "Market data unavailable: " + err.Error(),
    }
}

func sideError(name string, err error) string {
    return strings.ToUpper(name) + " series unavailable: " + err.Error()
}
