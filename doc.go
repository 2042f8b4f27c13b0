/*
Package threadio moves slow writes onto a dedicated goroutine while keeping
the behavior of a synchronous writer.

Streaming (pkg/streaming):
  - writer: Write proxy with a single worker goroutine per sink
  - channel: Bounded FIFO connecting the producer to the worker

Sinks (pkg/sink):
  - file sinks with gzip, zstd, lz4 or zip compression
  - redis sink that publishes only flushed bytes
  - throttled, discard and in-memory sinks

Supporting packages:
  - ratelimit/bucket: Token bucket used to throttle sinks
  - metrics: Prometheus instrumentation for write proxies

Example usage:

	import (
		"github.com/vnykmshr/threadio/pkg/sink"
		"github.com/vnykmshr/threadio/pkg/streaming/writer"
	)

	out, _ := sink.Create(sink.Config{Kind: sink.KindFile, Path: "out.log.gz", Compression: sink.GZIP})
	defer out.Close()

	_, err := writer.Run(64*1024, 4, out, func(w *writer.Proxy) (int64, error) {
		n, err := io.Copy(w, src)
		if err != nil {
			return n, err
		}
		return n, w.Flush()
	})

The threadio command in cmd/threadio wraps the same pieces for shell use.
*/
package threadio
