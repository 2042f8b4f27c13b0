/*
Package writer moves blocking writes off the caller's goroutine.

A write proxy pairs a Proxy, used by the producer, with one worker goroutine
that owns the sink. Writes are copied into fixed-size chunks and handed to the
worker over a bounded queue, so the producer only waits when the queue is full.
The proxy still behaves like a synchronous writer: bytes reach the sink in
order, Flush returns once the sink has flushed everything written before it,
and the first sink failure is reported to the producer with its original text.

# Quick Start

	out := bufio.NewWriter(file)
	_, err := writer.Run(64*1024, 4, out, func(w *writer.Proxy) (struct{}, error) {
		if _, err := io.Copy(w, src); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, w.Flush()
	})

Run joins the worker before returning. It does not flush the sink by itself;
call Proxy.Flush inside the body, set Config.FlushOnClose, or use RunFinish to
flush the sink directly once the worker is gone:

	_, out, err := writer.RunFinish(64*1024, 4, bufio.NewWriter(file), body,
		func(out *bufio.Writer) error { return out.Flush() })

# Failures

The worker records the first failure returned by the sink (or a panic inside
it) and stops calling the sink. Queued chunks are then discarded, flush
requests are still answered, and every later Write or Flush on the producer
side returns the recorded error. Use IsWriteFailure and IsFlushFailure to tell
the two apart; errors.Is and errors.As reach the sink's own error.

# Configuration

	config := writer.DefaultConfig()
	config.ChunkSize = 4096
	config.QueueLen = 16
	config.OnError = func(err error) { log.Printf("sink failed: %v", err) }
	config.Metrics = metrics.Default()

	_, err := writer.RunWithConfig(config, sink, body)

Chunk sizes and queue lengths below 1 are raised to 1.
*/
package writer
