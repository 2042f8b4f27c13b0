package writer

import (
	"time"

	"github.com/vnykmshr/threadio/pkg/metrics"
)

const (
	// DefaultChunkSize is the chunk capacity used by DefaultConfig.
	DefaultChunkSize = 64 * 1024

	// DefaultQueueLen is the queue depth used by DefaultConfig.
	DefaultQueueLen = 4
)

// Config holds configuration options for a write proxy.
type Config struct {
	// ChunkSize is the capacity in bytes of each chunk shipped to the worker.
	// Values below 1 are raised to 1.
	ChunkSize int

	// QueueLen is how many chunks or commands may wait for the worker before
	// the producer blocks. Values below 1 are raised to 1.
	QueueLen int

	// FlushOnClose makes the worker flush the sink once more after the last
	// chunk, provided no failure was recorded. When false, data that was
	// written but never flushed is handed to the sink's Write and left there.
	FlushOnClose bool

	// OnError is called from the worker goroutine with the first sink failure.
	OnError func(err error)

	// OnFlush is called from the worker goroutine after each successful sink
	// flush with the number of bytes written since the previous one.
	OnFlush func(bytes int64, duration time.Duration)

	// Name labels this proxy's metrics.
	// Default: "default"
	Name string

	// Metrics receives instrumentation. Nil disables it.
	Metrics *metrics.Registry
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		QueueLen:  DefaultQueueLen,
		Name:      "default",
	}
}

// normalized returns c with sizes clamped to the smallest usable values.
// A zero-size chunk or a zero-depth queue could never make progress.
func (c Config) normalized() Config {
	if c.ChunkSize < 1 {
		c.ChunkSize = 1
	}
	if c.QueueLen < 1 {
		c.QueueLen = 1
	}
	if c.Name == "" {
		c.Name = "default"
	}
	return c
}
