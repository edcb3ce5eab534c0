package series

import (
    "context"
    "errors"
    "io"
    "testing"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/require"

    "priceboard/internal/provider"
)

type fakeEquity struct {
    points []provider.DatePoint
    err    error
    panics bool
}

func (f *fakeEquity) DailyCloses(_ context.Context, _ string) ([]provider.DatePoint, error) {
    if f.panics { panic("decoder exploded") }
    return f.points, f.err
}

type fakeCrypto struct {
    points []provider.UnixPoint
    err    error
    panics bool
}

func (f *fakeCrypto) MarketChart(_ context.Context, coin string, days int) ([]provider.UnixPoint, error) {
    if f.panics { panic("chart exploded") }
    return f.points, f.err
}

var (
    spy = []provider.DatePoint{{Time: "2024-05-01", Value: 500.35}, {Time: "2024-05-02", Value: 505.03}}
    btc = []provider.UnixPoint{{Time: 1714521600, Value: 60000}, {Time: 1714608000, Value: 59000}}
)

func newService(eq *fakeEquity, cr *fakeCrypto) *Service {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return &Service{Equity: eq, Crypto: cr, Last: &LastGood{}, Log: l}
}

func TestFetch_BothSucceed(t *testing.T) {
    s := newService(&fakeEquity{points: spy}, &fakeCrypto{points: btc})

    got := s.Fetch(t.Context())

    require.Equal(t, Payload{SPY: spy, BTC: btc}, got)
    last, ok := s.Last.Load()
    require.True(t, ok)
    require.Equal(t, got, last)
}

func TestFetch_CryptoFailsEquityStillServedFresh(t *testing.T) {
    s := newService(&fakeEquity{points: spy}, &fakeCrypto{err: errors.New("503")})

    got := s.Fetch(t.Context())

    require.False(t, got.Stale)
    require.Equal(t, spy, got.SPY)
    require.Empty(t, got.BTC)
    require.Contains(t, got.Error, "BITCOIN")
    _, ok := s.Last.Load()
    require.False(t, ok, "partial success must not replace the last good payload")
}

func TestFetch_EquityFailsCryptoStillServedFresh(t *testing.T) {
    s := newService(&fakeEquity{err: provider.ErrRateLimited}, &fakeCrypto{points: btc})

    got := s.Fetch(t.Context())

    require.False(t, got.Stale)
    require.Empty(t, got.SPY)
    require.Equal(t, btc, got.BTC)
    require.Contains(t, got.Error, "SPY")
}

func TestFetch_BothFailColdStart(t *testing.T) {
    s := newService(&fakeEquity{err: errors.New("down")}, &fakeCrypto{err: errors.New("down")})

    got := s.Fetch(t.Context())

    require.True(t, got.Stale)
    require.NotNil(t, got.SPY)
    require.NotNil(t, got.BTC)
    require.Empty(t, got.SPY)
    require.Empty(t, got.BTC)
    require.NotEmpty(t, got.Error)
}

func TestFetch_BothFailServesLastGood(t *testing.T) {
    eq := &fakeEquity{points: spy}
    cr := &fakeCrypto{points: btc}
    s := newService(eq, cr)
    require.False(t, s.Fetch(t.Context()).Stale)

    eq.points, eq.err = nil, errors.New("down")
    cr.points, cr.err = nil, errors.New("down")
    got := s.Fetch(t.Context())

    require.True(t, got.Stale)
    require.Equal(t, spy, got.SPY)
    require.Equal(t, btc, got.BTC)
    require.Contains(t, got.Error, "cached")
}

func TestFetch_PanickingSideIsASingleSideFailure(t *testing.T) {
    eq := &fakeEquity{points: spy}
    s := newService(eq, &fakeCrypto{points: btc})
    s.Fetch(t.Context())

    eq.panics = true
    got := s.Fetch(t.Context())

    require.False(t, got.Stale)
    require.Empty(t, got.SPY)
    require.NotNil(t, got.SPY)
    require.Equal(t, btc, got.BTC)
    require.Contains(t, got.Error, "SPY series unavailable")
    require.Contains(t, got.Error, "decoder exploded")
}

func TestFetch_BothSidesPanicFallsBack(t *testing.T) {
    eq, cr := &fakeEquity{points: spy}, &fakeCrypto{points: btc}
    s := newService(eq, cr)
    s.Fetch(t.Context())

    eq.panics, cr.panics = true, true
    got := s.Fetch(t.Context())

    require.True(t, got.Stale)
    require.Equal(t, spy, got.SPY)
    require.Equal(t, btc, got.BTC)
    require.Contains(t, got.Error, "chart exploded")
}

func TestFetch_NilLastGoodColdStart(t *testing.T) {
    s := newService(&fakeEquity{err: errors.New("x")}, &fakeCrypto{err: errors.New("y")})
    s.Last = nil

    got := s.Fetch(t.Context())

    require.True(t, got.Stale)
}

func TestLastGood_StoreClearsFlags(t *testing.T) {
    var l LastGood
    l.Store(Payload{SPY: spy, Stale: true, Error: "x"})

    got, ok := l.Load()

    require.True(t, ok)
    require.False(t, got.Stale)
    require.Empty(t, got.Error)
}
