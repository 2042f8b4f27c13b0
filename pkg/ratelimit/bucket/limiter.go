// Package bucket implements a token bucket rate limiter. A throttled sink spends
// one token per byte written.
package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vnykmshr/threadio/pkg/common/validation"
)

// Limit is the number of tokens added to a bucket per second. A throttled
// sink spends one token per byte, so a Limit of 1<<20 caps it at 1 MiB/s.
// A zero Limit never refills. Use Inf for no limit.
type Limit float64

// Inf is the infinite rate limit; it allows all events.
var Inf = Limit(math.Inf(1))

// Every converts a minimum time interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Limiter hands out tokens from a bucket that refills at a fixed rate and
// holds at most Burst tokens.
type Limiter interface {
	// Allow reports whether one token can be taken now. It does not block.
	Allow() bool

	// AllowN reports whether n tokens can be taken now. It does not block.
	AllowN(n int) bool

	// WaitN takes n tokens, blocking until they are available, and returns
	// how long it waited. n may exceed Burst; the caller then waits for the
	// deficit to refill. On cancellation the tokens are returned to the bucket.
	WaitN(ctx context.Context, n int) (time.Duration, error)

	// SetLimit changes the refill rate, keeping the burst size.
	SetLimit(limit Limit)

	// Limit returns the current refill rate.
	Limit() Limit

	// Burst returns the bucket capacity.
	Burst() int

	// Tokens returns the number of tokens currently available. It is negative
	// while a WaitN caller is paying off a deficit.
	Tokens() float64
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens that can be stored.
	Burst int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock

	// InitialTokens is the number of tokens to start with.
	// If negative, starts with full capacity.
	InitialTokens int
}

// tokenBucket implements the Limiter interface using a token bucket algorithm.
type tokenBucket struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a limiter that starts with a full bucket.
func New(rate Limit, burst int) (Limiter, error) {
	return NewWithConfig(Config{
		Rate:          rate,
		Burst:         burst,
		InitialTokens: -1,
	})
}

// NewWithConfig creates a limiter with the specified configuration.
func NewWithConfig(config Config) (Limiter, error) {
	if err := validation.ValidateNonNegative("bucket", "rate", float64(config.Rate)); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("bucket", "burst", config.Burst); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	initialTokens := float64(config.InitialTokens)
	if config.InitialTokens < 0 || config.InitialTokens > config.Burst {
		initialTokens = float64(config.Burst)
	}

	return &tokenBucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     initialTokens,
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}
