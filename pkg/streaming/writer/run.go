package writer

import (
	"github.com/vnykmshr/threadio/pkg/common/validation"
)

// Run starts a worker goroutine for sink, calls body with a Proxy feeding it,
// then ships the remaining bytes and waits for the worker to finish.
//
// chunkSize and queueLen below 1 are treated as 1. The returned error is body's
// error if it returned one, otherwise the first sink failure. Run does not
// flush the sink on its own: bytes written after the last Proxy.Flush reach
// the sink's Write but are left for the caller to flush.
func Run[R any](chunkSize, queueLen int, sink Sink, body func(w *Proxy) (R, error)) (R, error) {
	config := DefaultConfig()
	config.ChunkSize = chunkSize
	config.QueueLen = queueLen
	return RunWithConfig(config, sink, body)
}

// RunWithConfig is like Run with full configuration.
func RunWithConfig[R any](config Config, sink Sink, body func(w *Proxy) (R, error)) (R, error) {
	var zero R
	if err := validation.ValidateNotNil("writer", "sink", sink); err != nil {
		return zero, err
	}

	p := newProxy(config, sink)

	out, err := runBody(p, body)
	if serr := p.shutdown(); err == nil {
		err = serr
	}
	return out, err
}

// RunFinish is like Run, but on success it also hands the idle sink to finish
// on the calling goroutine and returns the sink to the caller.
// finish is skipped when body or the worker failed.
func RunFinish[S Sink, R any](chunkSize, queueLen int, sink S, body func(w *Proxy) (R, error), finish func(sink S) error) (R, S, error) {
	config := DefaultConfig()
	config.ChunkSize = chunkSize
	config.QueueLen = queueLen
	return RunFinishWithConfig(config, sink, body, finish)
}

// RunFinishWithConfig is like RunFinish with full configuration.
func RunFinishWithConfig[S Sink, R any](config Config, sink S, body func(w *Proxy) (R, error), finish func(sink S) error) (R, S, error) {
	out, err := RunWithConfig[R](config, sink, body)
	if err != nil {
		return out, sink, err
	}

	if finish != nil {
		if err := finish(sink); err != nil {
			return out, sink, err
		}
	}
	return out, sink, nil
}

// runBody calls body. If body panics, the worker is joined before the panic
// continues up the stack.
func runBody[R any](p *Proxy, body func(w *Proxy) (R, error)) (R, error) {
	defer func() {
		if r := recover(); r != nil {
			_ = p.shutdown()
			panic(r)
		}
	}()
	return body(p)
}
