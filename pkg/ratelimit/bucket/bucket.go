package bucket

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrNeverAvailable is returned by WaitN when a zero-rate bucket holds fewer
// than the requested tokens and will never refill.
var ErrNeverAvailable = errors.New("bucket: tokens will never be available")

// Allow reports whether one token can be taken now.
func (tb *tokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN reports whether n tokens can be taken now.
func (tb *tokenBucket) AllowN(n int) bool {
	_, ok := tb.reserve(tb.clock.Now(), n, 0)
	return ok
}

// WaitN blocks until n tokens are available and takes them.
func (tb *tokenBucket) WaitN(ctx context.Context, n int) (time.Duration, error) {
	if n <= 0 {
		return 0, nil
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	delay, ok := tb.reserve(tb.clock.Now(), n, math.MaxInt64)
	if !ok {
		return 0, ErrNeverAvailable
	}
	if delay <= 0 {
		return 0, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		tb.refund(n)
		return 0, ctx.Err()
	}
}

// SetLimit changes the rate limit.
func (tb *tokenBucket) SetLimit(newLimit Limit) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	tb.limit = newLimit
}

// Limit returns the current rate limit.
func (tb *tokenBucket) Limit() Limit {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limit
}

// Burst returns the current burst size.
func (tb *tokenBucket) Burst() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.burst
}

// Tokens returns the number of tokens currently available.
func (tb *tokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	return tb.tokens
}

// reserve takes n tokens at now if they become available within maxWait,
// and returns how long the caller has to wait for them.
func (tb *tokenBucket) reserve(now time.Time, n int, maxWait time.Duration) (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if n <= 0 || tb.limit == Inf {
		return 0, true
	}

	tb.updateTokens(now)

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return 0, true
	}

	// Zero rate: only what is already in the bucket can be spent
	if tb.limit == 0 {
		return 0, false
	}

	deficit := float64(n) - tb.tokens
	wait := time.Duration(float64(time.Second) * deficit / float64(tb.limit))
	if wait > maxWait {
		return 0, false
	}

	tb.tokens -= float64(n) // Can go negative
	return wait, true
}

// updateTokens adds tokens based on the time elapsed since the last update.
func (tb *tokenBucket) updateTokens(now time.Time) {
	if tb.limit == Inf {
		tb.tokens = float64(tb.burst)
		tb.lastUpdate = now
		return
	}

	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.lastUpdate = now

	if tb.limit == 0 {
		return
	}

	tokensToAdd := elapsed.Seconds() * float64(tb.limit)
	tb.tokens = math.Min(tb.tokens+tokensToAdd, float64(tb.burst))
}

// refund returns n tokens taken by a wait that was abandoned.
func (tb *tokenBucket) refund(n int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	tb.tokens = math.Min(tb.tokens+float64(n), float64(tb.burst))
}
