package sink

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vnykmshr/threadio/pkg/common/validation"
	"github.com/vnykmshr/threadio/pkg/ratelimit/bucket"
)

// Sink is a destination for a write proxy. Write may be slow. Flush makes
// everything written so far durable or visible. Close flushes and releases
// the underlying resource.
type Sink interface {
	io.Writer
	Flush() error
	io.Closer
}

// Sink kinds accepted by Create.
const (
	KindFile    = "file"
	KindStdout  = "stdout"
	KindRedis   = "redis"
	KindDiscard = "discard"
)

// Compression formats for file sinks.
const (
	None = "none"
	GZIP = "gzip"
	ZIP  = "zip"
	ZSTD = "zstd"
	LZ4  = "lz4"
)

// DefaultBufferSize is the write buffer used by uncompressed file sinks.
const DefaultBufferSize = 256 * 1024

// Config describes the sink Create builds.
type Config struct {
	// Kind selects the sink: file, stdout, redis or discard.
	Kind string

	// Path is the output file for file sinks. A missing compression
	// extension is appended.
	Path string

	// Compression is the file encoding: none, gzip, zip, zstd or lz4.
	Compression string

	// Sync makes Flush fsync the file after flushing the encoder.
	Sync bool

	// BufferSize is the write buffer for uncompressed output.
	// Default: 256 KiB
	BufferSize int

	// Redis configures redis sinks.
	Redis RedisConfig

	// RateLimit caps throughput in bytes per second. Zero means unlimited.
	RateLimit int64
}

// Create builds the sink described by cfg.
func Create(cfg Config) (Sink, error) {
	s, err := create(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit <= 0 {
		return s, nil
	}

	limiter, err := bucket.New(bucket.Limit(cfg.RateLimit), burstFor(cfg.RateLimit))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return Throttle(s, limiter), nil
}

func create(cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindFile, "":
		if err := validation.ValidateNotEmpty("sink", "path", cfg.Path); err != nil {
			return nil, err
		}
		return createFile(cfg)
	case KindStdout:
		return newStdoutSink(cfg.BufferSize), nil
	case KindRedis:
		return NewRedis(cfg.Redis)
	case KindDiscard:
		return NewDiscard(), nil
	default:
		return nil, fmt.Errorf("unsupported sink kind %q", cfg.Kind)
	}
}

func createFile(cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Compression)) {
	case None, "":
		return newFileSink(cfg.Path, cfg.BufferSize, cfg.Sync)
	case GZIP:
		return newGzipSink(cfg.Path, cfg.Sync)
	case ZIP:
		return newZipSink(cfg.Path, cfg.Sync)
	case ZSTD:
		return newZstdSink(cfg.Path, cfg.Sync)
	case LZ4:
		return newLz4Sink(cfg.Path, cfg.Sync)
	default:
		return nil, fmt.Errorf("unsupported compression type %q", cfg.Compression)
	}
}

// burstFor allows a tenth of a second of traffic in one go, at least 4 KiB.
func burstFor(rate int64) int {
	burst := rate / int64(time.Second/(100*time.Millisecond))
	if burst < 4096 {
		burst = 4096
	}
	return int(burst)
}
