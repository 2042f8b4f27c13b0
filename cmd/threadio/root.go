package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/vnykmshr/threadio/internal/config"
	"github.com/vnykmshr/threadio/internal/logger"
	tictx "github.com/vnykmshr/threadio/pkg/common/context"
	"github.com/vnykmshr/threadio/pkg/metrics"
	"github.com/vnykmshr/threadio/pkg/sink"
	"github.com/vnykmshr/threadio/pkg/streaming/writer"
)

// options holds flag values. Only flags the user set override the loaded config.
type options struct {
	configPath    string
	chunkSize     int
	queueLen      int
	sinkKind      string
	output        string
	compression   string
	sync          bool
	redisAddr     string
	redisKey      string
	redisMode     string
	rateLimit     string
	flushSchedule string
	flushOnClose  bool
	metricsAddr   string
	verbose       bool
	quiet         bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "threadio [input]",
		Short: "Copy a stream into a slow sink without stalling the reader",
		Long: `threadio copies stdin (or a file) into a sink through a write proxy.
Reads and writes run on separate goroutines connected by a bounded queue of
chunks, so a slow sink only slows the reader once the queue is full.

Supported sinks:
 • stdout   buffered standard output (default)
 • file     optionally compressed with gzip, zstd, lz4 or zip
 • redis    appended to a key (or pushed to a list) on every flush
 • discard  counts bytes, useful for benchmarking`,
		Example: `  # Compress a log stream into a zstd file
  tail -f app.log | threadio --sink file -o app.log --compression zstd

  # Ship a file to redis, flushing every 5 seconds
  threadio events.ndjson --sink redis --redis-key events --flush-schedule "@every 5s"

  # Simulate a 1 MiB/s sink and expose metrics
  threadio big.bin --sink discard --rate-limit 1M --metrics-addr :9090 -v`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")

	// Proxy
	flags.IntVar(&opts.chunkSize, "chunk-size", writer.DefaultChunkSize, "Bytes per chunk handed to the sink goroutine")
	flags.IntVar(&opts.queueLen, "queue-len", writer.DefaultQueueLen, "Chunks that may wait for the sink before reads block")
	flags.StringVar(&opts.flushSchedule, "flush-schedule", "", `Flush the sink on a cron schedule (e.g. "@every 5s")`)
	flags.BoolVar(&opts.flushOnClose, "flush-on-close", false, "Let the sink goroutine flush once more when input ends")

	// Sink
	flags.StringVarP(&opts.sinkKind, "sink", "k", sink.KindStdout, "Sink kind (stdout, file, redis, discard)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file path for the file sink")
	flags.StringVarP(&opts.compression, "compression", "z", sink.None, "Compression for the file sink (none, gzip, zstd, lz4, zip)")
	flags.BoolVar(&opts.sync, "sync", false, "fsync the output file on every flush")
	flags.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis server address")
	flags.StringVar(&opts.redisKey, "redis-key", "", "Redis key receiving the data")
	flags.StringVar(&opts.redisMode, "redis-mode", sink.RedisAppend, "Redis write mode (append, list)")
	flags.StringVar(&opts.rateLimit, "rate-limit", "", "Cap sink throughput in bytes per second (e.g. 512K, 4M)")

	// Behavior
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output with detailed information")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Enable quiet mode: only display error messages")

	return cmd
}

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
	if changed("queue-len") {
		cfg.QueueLen = opts.queueLen
	}
	if changed("flush-schedule") {
		cfg.FlushSchedule = opts.flushSchedule
	}
	if changed("flush-on-close") {
		cfg.FlushOnClose = opts.flushOnClose
	}
	if changed("sink") {
		cfg.Sink = opts.sinkKind
	}
	if changed("output") {
		cfg.Output = opts.output
		if !changed("sink") && cfg.Sink == sink.KindStdout {
			cfg.Sink = sink.KindFile
		}
	}
	if changed("compression") {
		cfg.Compression = opts.compression
	}
	if changed("sync") {
		cfg.Sync = opts.sync
	}
	if changed("redis-addr") {
		cfg.RedisAddr = opts.redisAddr
	}
	if changed("redis-key") {
		cfg.RedisKey = opts.redisKey
	}
	if changed("redis-mode") {
		cfg.RedisMode = opts.redisMode
	}
	if changed("rate-limit") {
		cfg.RateLimit = opts.rateLimit
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.quiet {
		logger.SetQuiet(true)
		logger.SetVerbose(false)
	} else {
		logger.SetVerbose(opts.verbose)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("Effective configuration:\n%s", cfg)

	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	in, name, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	wc := cfg.WriterConfig()
	wc.OnError = func(err error) {
		logger.Debug("Sink failed, discarding remaining chunks: %v", err)
	}
	wc.OnFlush = func(bytes int64, d time.Duration) {
		logger.Debug("Flushed %d bytes in %v", bytes, d)
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		wc.Metrics = metrics.Config{Enabled: true, Registry: reg}.Build()

		stop, err := serveMetrics(cfg.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	sc, err := cfg.SinkConfig()
	if err != nil {
		return err
	}
	out, err := sink.Create(sc)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	logger.Debug("Copying %s to %s sink (chunk=%d queue=%d)", name, sc.Kind, wc.ChunkSize, wc.QueueLen)

	n, out, err := writer.RunFinishWithConfig(wc, out,
		func(w *writer.Proxy) (int64, error) {
			return copyStream(ctx, w, in, schedule, time.Now)
		},
		func(out sink.Sink) error {
			return out.Flush()
		})
	if cerr := out.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("error closing sink: %w", cerr))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted after %d bytes", n)
		}
		return err
	}

	logger.Success("Copied %d bytes from %s in %v", n, name, time.Since(start).Round(time.Millisecond))
	return nil
}

// openInput returns the file named by args, or stdin.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("error opening input: %w", err)
	}
	return f, args[0], nil
}

// serveMetrics exposes reg on addr until the returned stop function is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error starting metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped: %v", err)
		}
	}()
	logger.Info("Serving metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := tictx.WithTimeoutOrCancel(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
