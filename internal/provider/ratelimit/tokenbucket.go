package ratelimit

import (
    "context"
    "sync"
    "time"
)

// TokenBucket is a stdlib-only token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
    rate     float64
    capacity float64
    now      func() time.Time

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

// NewTokenBucket returns a full bucket. A nil *TokenBucket never limits.
func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
    if tokensPerSecond <= 0 { tokensPerSecond = 0.0000001 }
    if burst <= 0 { burst = 1 }
    return &TokenBucket{
        rate:     tokensPerSecond,
        capacity: float64(burst),
        now:      time.Now,
        tokens:   float64(burst), // start full to allow an initial burst
        last:     time.Now(),
    }
}

// PerMinute builds a bucket from a requests-per-minute budget. rpm <= 0 disables limiting.
func PerMinute(rpm, burst int) *TokenBucket {
    if rpm <= 0 { return nil }
    return NewTokenBucket(float64(rpm)/60.0, burst)
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
    now := tb.now()
    elapsed := now.Sub(tb.last).Seconds()
    if elapsed > 0 {
        tb.tokens += elapsed * tb.rate
        if tb.tokens > tb.capacity {
            tb.tokens = tb.capacity
        }
        tb.last = now
    }
}

// Allow takes a token if one is available and reports whether it did.
func (tb *TokenBucket) Allow() bool {
    if tb == nil { return true }
    tb.mu.Lock()
    defer tb.mu.Unlock()
    tb.refill()
    if tb.tokens >= 1 {
        tb.tokens -= 1
        return true
    }
    return false
}

// Wait blocks until one token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
    if tb == nil { return nil }
    for {
        tb.mu.Lock()
        tb.refill()
        if tb.tokens >= 1 {
            tb.tokens -= 1
            tb.mu.Unlock()
            return nil
        }
        // Need to wait for the remaining fraction
        deficit := 1 - tb.tokens
        tb.mu.Unlock()
        waitDur := time.Duration(deficit/tb.rate*1e9) * time.Nanosecond
        if waitDur <= 0 { waitDur = time.Millisecond }
        timer := time.NewTimer(waitDur)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}
