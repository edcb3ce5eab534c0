package cache

import (
    "context"
    "slices"
    "strings"
    "sync"
    "time"

    "golang.org/x/sync/singleflight"
)

// entry stores one cached payload and when it was written.
type entry[V any] struct {
    storedAt time.Time
    payload  V
}

// TTL is a keyed short-lived memo shared by provider adapters.
// An entry is valid while now-storedAt <= TTL. Expired entries are ignored on
// read but never swept; Put always overwrites. Safe for concurrent use, last
// writer wins.
type TTL[V any] struct {
    TTL time.Duration
    // FlightTimeout bounds one shared load; zero means DefaultFlightTimeout.
    FlightTimeout time.Duration
    // Now is the clock; nil means time.Now.
    Now func() time.Time

    mu    sync.RWMutex
    items map[string]entry[V]

    // coalesce concurrent misses for the same key
    sf singleflight.Group
}

// DefaultFlightTimeout bounds a shared load when FlightTimeout is unset.
const DefaultFlightTimeout = 30 * time.Second

// New returns an empty cache with the given freshness window.
func New[V any](ttl time.Duration) *TTL[V] {
    return &TTL[V]{TTL: ttl, items: make(map[string]entry[V])}
}

func (c *TTL[V]) now() time.Time {
    if c.Now != nil { return c.Now() }
    return time.Now()
}

// Get returns the payload for key if it was stored within the TTL.
func (c *TTL[V]) Get(key string) (V, bool) {
    c.mu.RLock()
    e, ok := c.items[key]
    c.mu.RUnlock()
    if !ok || c.now().Sub(e.storedAt) > c.TTL {
        var zero V
        return zero, false
    }
    return e.payload, true
}

// Put stores payload under key, replacing any previous entry.
func (c *TTL[V]) Put(key string, payload V) {
    c.mu.Lock()
    if c.items == nil { c.items = make(map[string]entry[V]) }
    c.items[key] = entry[V]{storedAt: c.now(), payload: payload}
    c.mu.Unlock()
}

// Len reports how many entries are held, expired ones included.
func (c *TTL[V]) Len() int {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return len(c.items)
}

// Load returns the cached payload for key, or calls load on a miss and stores
// its result when it succeeds. Concurrent misses for the same key share one
// load call. hit reports whether the payload came from the cache.
//
// The shared load runs detached from ctx, bounded by FlightTimeout, so one
// caller giving up does not fail the others waiting on the same flight. A
// caller whose ctx ends stops waiting and gets ctx.Err().
func (c *TTL[V]) Load(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (payload V, hit bool, err error) {
    var zero V
    if v, ok := c.Get(key); ok {
        return v, true, nil
    }
    timeout := c.FlightTimeout
    if timeout <= 0 { timeout = DefaultFlightTimeout }
    detached := context.WithoutCancel(ctx)

    ch := c.sf.DoChan(key, func() (any, error) {
        // another flight may have filled it between Get and DoChan
        if v, ok := c.Get(key); ok {
            return v, nil
        }
        fctx, cancel := context.WithTimeout(detached, timeout)
        defer cancel()
        v, err := load(fctx)
        if err != nil {
            return nil, err
        }
        c.Put(key, v)
        return v, nil
    })
    select {
    case <-ctx.Done():
        return zero, false, ctx.Err()
    case res := <-ch:
        if res.Err != nil {
            return zero, false, res.Err
        }
        return res.Val.(V), false, nil
    }
}

// Key builds a cache key from a provider name and an unordered request set.
// The set is de-duplicated and sorted so equal sets share one key.
func Key(provider string, set []string) string {
    s := slices.Clone(set)
    slices.Sort(s)
    s = slices.Compact(s)
    return provider + ":" + strings.Join(s, ",")
}
