package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for threadio components.
type Registry struct {
	// Write proxy metrics
	WriterChunks       *prometheus.CounterVec
	WriterBytesWritten *prometheus.CounterVec
	WriterFlushes      *prometheus.CounterVec
	WriterErrors       *prometheus.CounterVec
	WriterQueueDepth   *prometheus.GaugeVec
	SinkWriteDuration  *prometheus.HistogramVec
	SinkFlushDuration  *prometheus.HistogramVec
	BackpressureEvents *prometheus.CounterVec
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the registry bound to prometheus.DefaultRegisterer.
// It is created on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

func newRegistry(reg prometheus.Registerer, namespace string) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		WriterChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "chunks_total",
				Help:      "Total number of chunks handed to the write worker",
			},
			[]string{"writer_name"},
		),

		WriterBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "bytes_written_total",
				Help:      "Total bytes accepted by the sink",
			},
			[]string{"writer_name"},
		),

		WriterFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "flushes_total",
				Help:      "Total number of successful sink flushes",
			},
			[]string{"writer_name"},
		),

		WriterErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "errors_total",
				Help:      "Total number of sink failures, by operation",
			},
			[]string{"writer_name", "op"},
		),

		WriterQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "writer",
				Name:      "queue_depth",
				Help:      "Number of chunks and commands waiting for the worker",
			},
			[]string{"writer_name"},
		),

		SinkWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sink",
				Name:      "write_duration_seconds",
				Help:      "Time spent writing one chunk into the sink",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"writer_name"},
		),

		SinkFlushDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sink",
				Name:      "flush_duration_seconds",
				Help:      "Time spent in sink flushes",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"writer_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backpressure",
				Name:      "events_total",
				Help:      "Total number of times a producer waited on a full queue",
			},
			[]string{"writer_name"},
		),
	}
}
