package sink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/threadio/pkg/ratelimit/bucket"
)

// ThrottledSink spends one limiter token per byte before each write.
type ThrottledSink struct {
	Sink
	limiter bucket.Limiter
	waited  int64 // nanoseconds, atomic
}

// Throttle wraps s so its writes proceed no faster than limiter allows.
func Throttle(s Sink, limiter bucket.Limiter) *ThrottledSink {
	return &ThrottledSink{Sink: s, limiter: limiter}
}

// Write waits for len(p) tokens, then writes p.
func (t *ThrottledSink) Write(p []byte) (int, error) {
	waited, err := t.limiter.WaitN(context.Background(), len(p))
	if err != nil {
		return 0, err
	}
	atomic.AddInt64(&t.waited, int64(waited))
	return t.Sink.Write(p)
}

// Waited returns the total time writes spent waiting for tokens.
func (t *ThrottledSink) Waited() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.waited))
}
