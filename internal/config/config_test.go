package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/threadio/internal/testutil"
	tierrors "github.com/vnykmshr/threadio/pkg/common/errors"
	"github.com/vnykmshr/threadio/pkg/sink"
	"github.com/vnykmshr/threadio/pkg/streaming/writer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threadio.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	testutil.AssertEqual(t, cfg.ChunkSize, writer.DefaultChunkSize)
	testutil.AssertEqual(t, cfg.QueueLen, writer.DefaultQueueLen)
	testutil.AssertEqual(t, cfg.Sink, sink.KindStdout)
	testutil.AssertNoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
chunk_size: 4096
queue_len: 8
sink: file
output: /tmp/out.log
compression: zstd
rate_limit: 2M
flush_schedule: "@every 5s"
redis_ttl: 90s
`)

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.ChunkSize, 4096)
	testutil.AssertEqual(t, cfg.QueueLen, 8)
	testutil.AssertEqual(t, cfg.Sink, "file")
	testutil.AssertEqual(t, cfg.Compression, "zstd")
	testutil.AssertEqual(t, cfg.RedisTTL, 90*time.Second)
	// Keys absent from the file keep their defaults
	testutil.AssertEqual(t, cfg.RedisAddr, "localhost:6379")
	testutil.AssertNoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "chunk_sise: 10\n"))
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "chunk_sise") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.ChunkSize, writer.DefaultChunkSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	testutil.AssertError(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "chunk_size: 4096\nsink: file\noutput: a.log\n")
	t.Setenv("THREADIO_CHUNK_SIZE", "128")
	t.Setenv("THREADIO_OUTPUT", "b.log")
	t.Setenv("THREADIO_FLUSH_ON_CLOSE", "true")
	t.Setenv("THREADIO_REDIS_TTL", "1m")

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.ChunkSize, 128)
	testutil.AssertEqual(t, cfg.Output, "b.log")
	testutil.AssertEqual(t, cfg.FlushOnClose, true)
	testutil.AssertEqual(t, cfg.RedisTTL, time.Minute)
}

func TestLoadInvalidEnv(t *testing.T) {
	tests := map[string]string{
		"THREADIO_CHUNK_SIZE":     "big",
		"THREADIO_QUEUE_LEN":      "1.5",
		"THREADIO_SYNC":           "maybe",
		"THREADIO_FLUSH_ON_CLOSE": "2",
		"THREADIO_REDIS_TTL":      "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			testutil.AssertEqual(t, tierrors.IsValidationError(err), true)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk_size"},
		{"negative queue", func(c *Config) { c.QueueLen = -1 }, "queue_len"},
		{"file without output", func(c *Config) { c.Sink = "file"; c.Output = "  " }, "output"},
		{"redis without key", func(c *Config) { c.Sink = "redis" }, "redis_key"},
		{"unknown sink", func(c *Config) { c.Sink = "kafka" }, "sink"},
		{"bad rate", func(c *Config) { c.RateLimit = "fast" }, "rate_limit"},
		{"bad schedule", func(c *Config) { c.FlushSchedule = "every now and then" }, "flush_schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			testutil.AssertEqual(t, tierrors.IsValidationError(err), true)
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	cfg := Default()
	schedule, err := cfg.Schedule()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, schedule, nil)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for expr, want := range map[string]time.Duration{
		"@every 5s":     5 * time.Second,
		"*/10 * * * *":  10 * time.Minute,
		"*/2 * * * * *": 2 * time.Second,
	} {
		cfg.FlushSchedule = expr
		schedule, err := cfg.Schedule()
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, schedule.Next(start).Sub(start), want)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512", 512, false},
		{"64K", 64 << 10, false},
		{"64kb", 64 << 10, false},
		{"4MiB", 4 << 20, false},
		{"1G", 1 << 30, false},
		{" 2 M ", 2 << 20, false},
		{"fast", 0, true},
		{"-1K", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				testutil.AssertError(t, err)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestSinkAndWriterConfig(t *testing.T) {
	cfg := Default()
	cfg.Sink = "REDIS"
	cfg.RedisKey = "events"
	cfg.RateLimit = "1K"
	cfg.ChunkSize = 10
	cfg.FlushOnClose = true

	sc, err := cfg.SinkConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sc.Kind, sink.KindRedis)
	testutil.AssertEqual(t, sc.RateLimit, int64(1024))
	testutil.AssertEqual(t, sc.Redis.Key, "events")
	testutil.AssertEqual(t, sc.Redis.Addr, "localhost:6379")

	wc := cfg.WriterConfig()
	testutil.AssertEqual(t, wc.ChunkSize, 10)
	testutil.AssertEqual(t, wc.QueueLen, writer.DefaultQueueLen)
	testutil.AssertEqual(t, wc.FlushOnClose, true)
	testutil.AssertEqual(t, wc.Name, "redis")
}

func TestString(t *testing.T) {
	out := Default().String()
	if !strings.Contains(out, "chunk_size: 65536") || !strings.Contains(out, "sink: stdout") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}
