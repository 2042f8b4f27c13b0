package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/vnykmshr/threadio/internal/logger"
	tierrors "github.com/vnykmshr/threadio/pkg/common/errors"
	"github.com/vnykmshr/threadio/pkg/common/validation"
)

// Redis sink modes.
const (
	// RedisAppend appends each flush to a string value.
	RedisAppend = "append"

	// RedisList pushes each flush as one list element.
	RedisList = "list"
)

// RedisConfig configures a redis sink.
type RedisConfig struct {
	// Client is used when set; otherwise one is created for Addr and closed
	// with the sink.
	Client redis.UniversalClient

	// Addr is the server address used when Client is nil.
	Addr string

	// Key receives the flushed bytes.
	Key string

	// Mode is RedisAppend or RedisList.
	// Default: RedisAppend
	Mode string

	// Timeout bounds each round trip.
	// Default: 5s
	Timeout time.Duration

	// TTL, when positive, is refreshed on the key after every flush.
	TTL time.Duration
}

// RedisSink buffers writes in memory and ships them to redis on Flush, so
// only flushed bytes are ever visible to readers of the key.
type RedisSink struct {
	client     redis.UniversalClient
	ownsClient bool
	key        string
	mode       string
	timeout    time.Duration
	ttl        time.Duration
	buf        bytes.Buffer
}

// NewRedis creates a redis sink.
func NewRedis(cfg RedisConfig) (*RedisSink, error) {
	if err := validation.ValidateNotEmpty("sink", "redis_key", cfg.Key); err != nil {
		return nil, err
	}

	mode := strings.ToLower(cfg.Mode)
	switch mode {
	case "":
		mode = RedisAppend
	case RedisAppend, RedisList:
	default:
		return nil, fmt.Errorf("unsupported redis mode %q", cfg.Mode)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &RedisSink{
		client:  cfg.Client,
		key:     cfg.Key,
		mode:    mode,
		timeout: timeout,
		ttl:     cfg.TTL,
	}
	if s.client == nil {
		if err := validation.ValidateNotEmpty("sink", "redis_addr", cfg.Addr); err != nil {
			return nil, err
		}
		s.client = redis.NewClient(&redis.Options{Addr: cfg.Addr})
		s.ownsClient = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		if s.ownsClient {
			_ = s.client.Close()
		}
		return nil, tierrors.NewOperationError("sink", "redis_connect", err).WithContext(cfg.Addr)
	}

	logger.Debug("Created redis sink: key=%s mode=%s", s.key, s.mode)
	return s, nil
}

// Write buffers p. It never fails.
func (s *RedisSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Buffered returns the number of bytes waiting for the next Flush.
func (s *RedisSink) Buffered() int {
	return s.buf.Len()
}

// Flush sends the buffered bytes in one transaction. On failure the bytes
// stay buffered and the next Flush retries them.
func (s *RedisSink) Flush() error {
	if s.buf.Len() == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	switch s.mode {
	case RedisList:
		pipe.RPush(ctx, s.key, s.buf.Bytes())
	default:
		pipe.Append(ctx, s.key, s.buf.String())
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error flushing to redis key %s: %w", s.key, err)
	}
	s.buf.Reset()
	return nil
}

// Close flushes and closes the client if the sink created it.
func (s *RedisSink) Close() error {
	err := s.Flush()
	if s.ownsClient {
		err = multierr.Append(err, s.client.Close())
	}
	return err
}
