package ratelimit

import (
    "sync"
    "time"
)

// MinGap admits at most one event per Interval and drops the rest.
// Unlike a waiting limiter it never blocks: callers learn when the last
// admitted event happened so they can report it instead.
type MinGap struct {
    Interval time.Duration
    // Now is the clock; nil means time.Now.
    Now func() time.Time

    mu   sync.Mutex
    last time.Time
}

func (m *MinGap) now() time.Time {
    if m.Now != nil { return m.Now() }
    return time.Now()
}

// Allow reports whether an event may proceed now and records it if so.
// last is the time of the most recently admitted event (zero if none).
func (m *MinGap) Allow() (ok bool, last time.Time) {
    m.mu.Lock()
    defer m.mu.Unlock()
    now := m.now()
    if !m.last.IsZero() && m.Interval > 0 && now.Sub(m.last) < m.Interval {
        return false, m.last
    }
    m.last = now
    return true, now
}

// Last returns the time of the most recently admitted event.
func (m *MinGap) Last() time.Time {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.last
}
