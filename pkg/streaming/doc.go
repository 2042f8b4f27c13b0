/*
Package streaming groups the packages that carry bytes from a producer to a
sink owned by another goroutine.

  - writer: The write proxy. Run and RunFinish start one worker per sink,
    hand the body a Proxy, and join the worker before returning.
  - channel: A generic bounded FIFO with blocking Push and Pop. It carries
    chunks and flush requests to the worker and recycles spent chunks.

Basic usage:

	_, err := writer.Run(4096, 8, sink, func(w *writer.Proxy) (struct{}, error) {
		if _, err := w.Write(data); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, w.Flush()
	})

Ordering, flush semantics and error text match what a direct call to the sink
would give; only the blocking moves to the worker.
*/
package streaming
