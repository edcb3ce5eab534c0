package cache

import (
    "context"
    "errors"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

type fakeClock struct {
    mu  sync.Mutex
    now time.Time
}

func (f *fakeClock) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
    f.mu.Lock()
    f.now = f.now.Add(d)
    f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*TTL[string], *fakeClock) {
    clk := &fakeClock{now: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
    c := New[string](ttl)
    c.Now = clk.Now
    return c, clk
}

func TestTTL_GetWithinAndAfterWindow(t *testing.T) {
    t.Parallel()

    c, clk := newTestCache(time.Minute)
    _, ok := c.Get("cg:bitcoin")
    require.False(t, ok, "never set")

    c.Put("cg:bitcoin", "payload")
    v, ok := c.Get("cg:bitcoin")
    require.True(t, ok)
    require.Equal(t, "payload", v)

    clk.Advance(time.Minute)
    _, ok = c.Get("cg:bitcoin")
    require.True(t, ok, "exactly TTL old is still valid")

    clk.Advance(time.Nanosecond)
    _, ok = c.Get("cg:bitcoin")
    require.False(t, ok, "expired")
    require.Equal(t, 1, c.Len(), "expired entries are ignored, not removed")
}

func TestTTL_PutOverwrites(t *testing.T) {
    t.Parallel()

    c, clk := newTestCache(time.Minute)
    c.Put("k", "old")
    clk.Advance(2 * time.Minute)
    c.Put("k", "new")
    v, ok := c.Get("k")
    require.True(t, ok)
    require.Equal(t, "new", v)
}

func TestTTL_LoadHitsCacheWithinWindow(t *testing.T) {
    t.Parallel()

    c, clk := newTestCache(time.Minute)
    var calls int
    load := func(context.Context) (string, error) { calls++; return "fresh", nil }

    v, hit, err := c.Load(context.Background(), "av:AAPL", load)
    require.NoError(t, err)
    require.False(t, hit)
    require.Equal(t, "fresh", v)

    clk.Advance(30 * time.Second)
    _, hit, err = c.Load(context.Background(), "av:AAPL", load)
    require.NoError(t, err)
    require.True(t, hit)
    require.Equal(t, 1, calls, "second call inside the window must not reach upstream")

    clk.Advance(31 * time.Second)
    _, hit, err = c.Load(context.Background(), "av:AAPL", load)
    require.NoError(t, err)
    require.False(t, hit)
    require.Equal(t, 2, calls, "call after expiry must reach upstream")
}

func TestTTL_LoadErrorIsNotStored(t *testing.T) {
    t.Parallel()

    c, _ := newTestCache(time.Minute)
    boom := errors.New("boom")
    _, _, err := c.Load(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
    require.ErrorIs(t, err, boom)
    require.Equal(t, 0, c.Len())
}

func TestTTL_LoadCoalescesConcurrentMisses(t *testing.T) {
    t.Parallel()

    c := New[int](time.Minute)
    var calls atomic.Int32
    release := make(chan struct{})
    load := func(context.Context) (int, error) {
        calls.Add(1)
        <-release
        return 7, nil
    }

    const n = 8
    var wg sync.WaitGroup
    results := make([]int, n)
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            results[i], _, errs[i] = c.Load(context.Background(), "mp:USD,XAU", load)
        }(i)
    }
    // let the goroutines pile up on the flight before releasing it
    time.Sleep(20 * time.Millisecond)
    close(release)
    wg.Wait()

    require.LessOrEqual(t, calls.Load(), int32(2))
    for i, v := range results {
        require.NoError(t, errs[i])
        require.Equal(t, 7, v)
    }
}

func TestTTL_LoadSurvivesFirstCallerLeaving(t *testing.T) {
    t.Parallel()

    c := New[string](time.Minute)
    started := make(chan struct{})
    release := make(chan struct{})
    var loadErr atomic.Value
    load := func(ctx context.Context) (string, error) {
        close(started)
        <-release
        if err := ctx.Err(); err != nil {
            loadErr.Store(err)
            return "", err
        }
        return "rates", nil
    }

    ctx, cancel := context.WithCancel(context.Background())
    first := make(chan error, 1)
    go func() {
        _, _, err := c.Load(ctx, "mp:XAU", load)
        first <- err
    }()
    <-started

    second := make(chan string, 1)
    go func() {
        v, _, _ := c.Load(context.Background(), "mp:XAU", load)
        second <- v
    }()
    // give the second caller time to join the flight
    time.Sleep(20 * time.Millisecond)

    cancel()
    require.ErrorIs(t, <-first, context.Canceled)
    close(release)

    require.Equal(t, "rates", <-second)
    require.Nil(t, loadErr.Load())
    v, ok := c.Get("mp:XAU")
    require.True(t, ok)
    require.Equal(t, "rates", v)
}

func TestTTL_LoadIsBoundedByFlightTimeout(t *testing.T) {
    t.Parallel()

    c := New[string](time.Minute)
    c.FlightTimeout = 20 * time.Millisecond

    _, _, err := c.Load(context.Background(), "slow", func(ctx context.Context) (string, error) {
        <-ctx.Done()
        return "", ctx.Err()
    })

    require.ErrorIs(t, err, context.DeadlineExceeded)
    require.Equal(t, 0, c.Len())
}

func TestKey_SortsAndDeduplicates(t *testing.T) {
    t.Parallel()

    require.Equal(t, "coingecko:bitcoin,ethereum", Key("coingecko", []string{"ethereum", "bitcoin", "ethereum"}))
    require.Equal(t, Key("m", []string{"b", "a"}), Key("m", []string{"a", "b"}))
    in := []string{"z", "a"}
    _ = Key("x", in)
    require.Equal(t, []string{"z", "a"}, in, "input must not be reordered")
}
