/*
Package ratelimit provides rate limiting primitives for Go applications.

The bucket subpackage implements a token bucket limiter that allows
controlled bursts:

	limiter, _ := bucket.New(64*1024, 4096) // 64 KiB/s, bursts of 4 KiB
	if _, err := limiter.WaitN(ctx, len(p)); err != nil {
		return err
	}

threadio uses it to cap the byte rate of a sink, which is also a convenient
way to simulate a slow disk or network in tests and benchmarks.

Limiters are safe for concurrent use and integrate with the context package
for cancellation and timeouts.
*/
package ratelimit
