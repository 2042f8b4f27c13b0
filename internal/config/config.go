// Package config loads settings for the threadio command from defaults, an
// optional YAML file, a .env file and THREADIO_* environment variables.
// Command line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	tierrors "github.com/vnykmshr/threadio/pkg/common/errors"
	"github.com/vnykmshr/threadio/pkg/common/validation"
	"github.com/vnykmshr/threadio/pkg/sink"
	"github.com/vnykmshr/threadio/pkg/streaming/writer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "THREADIO_"

// Config holds the command's settings.
type Config struct {
	ChunkSize     int           `yaml:"chunk_size"`
	QueueLen      int           `yaml:"queue_len"`
	Sink          string        `yaml:"sink"`
	Output        string        `yaml:"output"`
	Compression   string        `yaml:"compression"`
	Sync          bool          `yaml:"sync"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisKey      string        `yaml:"redis_key"`
	RedisMode     string        `yaml:"redis_mode"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
	RateLimit     string        `yaml:"rate_limit"`
	FlushSchedule string        `yaml:"flush_schedule"`
	FlushOnClose  bool          `yaml:"flush_on_close"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ChunkSize:   writer.DefaultChunkSize,
		QueueLen:    writer.DefaultQueueLen,
		Sink:        sink.KindStdout,
		Compression: sink.None,
		RedisAddr:   "localhost:6379",
		RedisMode:   sink.RedisAppend,
	}
}

// Load returns Default overlaid with the YAML file at path (if path is not
// empty), then with the environment. A .env file in the working directory is
// loaded into the environment first when present.
func Load(path string) (Config, error) {
	cfg := Default()

	_ = godotenv.Load()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("error opening config file: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decode overlays YAML from r onto c. Unknown keys are rejected.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Sink = getEnvOrDefault("SINK", c.Sink)
	c.Output = getEnvOrDefault("OUTPUT", c.Output)
	c.Compression = getEnvOrDefault("COMPRESSION", c.Compression)
	c.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.RedisAddr)
	c.RedisKey = getEnvOrDefault("REDIS_KEY", c.RedisKey)
	c.RedisMode = getEnvOrDefault("REDIS_MODE", c.RedisMode)
	c.RateLimit = getEnvOrDefault("RATE_LIMIT", c.RateLimit)
	c.FlushSchedule = getEnvOrDefault("FLUSH_SCHEDULE", c.FlushSchedule)
	c.MetricsAddr = getEnvOrDefault("METRICS_ADDR", c.MetricsAddr)

	var err error
	if c.ChunkSize, err = getEnvInt("CHUNK_SIZE", c.ChunkSize); err != nil {
		return err
	}
	if c.QueueLen, err = getEnvInt("QUEUE_LEN", c.QueueLen); err != nil {
		return err
	}
	if c.Sync, err = getEnvBool("SYNC", c.Sync); err != nil {
		return err
	}
	if c.FlushOnClose, err = getEnvBool("FLUSH_ON_CLOSE", c.FlushOnClose); err != nil {
		return err
	}
	if value := os.Getenv(EnvPrefix + "REDIS_TTL"); value != "" {
		d, perr := time.ParseDuration(value)
		if perr != nil {
			return envError("REDIS_TTL", value, perr)
		}
		c.RedisTTL = d
	}
	return nil
}

// Validate checks that the configuration has usable values.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("config", "chunk_size", c.ChunkSize); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "queue_len", c.QueueLen); err != nil {
		return err
	}

	switch strings.ToLower(c.Sink) {
	case sink.KindFile:
		if err := validation.ValidateNotEmpty("config", "output", strings.TrimSpace(c.Output)); err != nil {
			return err
		}
	case sink.KindRedis:
		if err := validation.ValidateNotEmpty("config", "redis_key", c.RedisKey); err != nil {
			return err
		}
	case sink.KindStdout, sink.KindDiscard:
	default:
		return tierrors.NewValidationError("config", "sink", c.Sink, "unknown sink").
			WithHint("use file, stdout, redis or discard")
	}

	if _, err := c.RateLimitBytes(); err != nil {
		return err
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	return nil
}

// SinkConfig translates c into a sink configuration.
func (c Config) SinkConfig() (sink.Config, error) {
	rate, err := c.RateLimitBytes()
	if err != nil {
		return sink.Config{}, err
	}
	return sink.Config{
		Kind:        strings.ToLower(c.Sink),
		Path:        c.Output,
		Compression: c.Compression,
		Sync:        c.Sync,
		RateLimit:   rate,
		Redis: sink.RedisConfig{
			Addr: c.RedisAddr,
			Key:  c.RedisKey,
			Mode: c.RedisMode,
			TTL:  c.RedisTTL,
		},
	}, nil
}

// WriterConfig returns the proxy configuration for c.
func (c Config) WriterConfig() writer.Config {
	wc := writer.DefaultConfig()
	wc.ChunkSize = c.ChunkSize
	wc.QueueLen = c.QueueLen
	wc.FlushOnClose = c.FlushOnClose
	wc.Name = strings.ToLower(c.Sink)
	return wc
}

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule parses FlushSchedule. It returns nil when no schedule is set.
// Both five and six field (with seconds) expressions and descriptors such as
// "@every 5s" are accepted.
func (c Config) Schedule() (cron.Schedule, error) {
	if strings.TrimSpace(c.FlushSchedule) == "" {
		return nil, nil
	}
	schedule, err := scheduleParser.Parse(c.FlushSchedule)
	if err != nil {
		return nil, tierrors.NewValidationError("config", "flush_schedule", c.FlushSchedule, err.Error()).
			WithHint(`use a cron expression or a descriptor like "@every 5s"`)
	}
	return schedule, nil
}

// RateLimitBytes parses RateLimit. Zero means unlimited.
func (c Config) RateLimitBytes() (int64, error) {
	n, err := ParseSize(c.RateLimit)
	if err != nil {
		return 0, tierrors.NewValidationError("config", "rate_limit", c.RateLimit, err.Error()).
			WithHint("use bytes per second, optionally with a K, M or G suffix")
	}
	return n, nil
}

// ParseSize parses a byte count with an optional binary suffix: "512",
// "64K", "4MiB", "1G". An empty string is zero.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	upper = strings.TrimSuffix(upper, "IB")
	upper = strings.TrimSuffix(upper, "B")

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = 1 << 10
	case strings.HasSuffix(upper, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(upper, "G"):
		multiplier = 1 << 30
	}
	if multiplier > 1 {
		upper = upper[:len(upper)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size %q cannot be negative", s)
	}
	return n * multiplier, nil
}

// String renders c as YAML.
func (c Config) String() string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	_ = enc.Encode(c)
	_ = enc.Close()
	return buf.String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, envError(key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, envError(key, value, err)
	}
	return b, nil
}

func envError(key, value string, err error) error {
	return tierrors.NewValidationError("config", EnvPrefix+key, value, err.Error())
}
