package writer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// instruments holds the metric children for one proxy. A nil *instruments is
// valid and records nothing.
type instruments struct {
	chunks        prometheus.Counter
	bytes         prometheus.Counter
	flushes       prometheus.Counter
	writeErrors   prometheus.Counter
	flushErrors   prometheus.Counter
	queueDepth    prometheus.Gauge
	writeDuration prometheus.Observer
	flushDuration prometheus.Observer
	backpressure  prometheus.Counter
}

func newInstruments(config Config) *instruments {
	reg := config.Metrics
	if reg == nil {
		return nil
	}

	name := config.Name
	return &instruments{
		chunks:        reg.WriterChunks.WithLabelValues(name),
		bytes:         reg.WriterBytesWritten.WithLabelValues(name),
		flushes:       reg.WriterFlushes.WithLabelValues(name),
		writeErrors:   reg.WriterErrors.WithLabelValues(name, OpWrite.String()),
		flushErrors:   reg.WriterErrors.WithLabelValues(name, OpFlush.String()),
		queueDepth:    reg.WriterQueueDepth.WithLabelValues(name),
		writeDuration: reg.SinkWriteDuration.WithLabelValues(name),
		flushDuration: reg.SinkFlushDuration.WithLabelValues(name),
		backpressure:  reg.BackpressureEvents.WithLabelValues(name),
	}
}

func (i *instruments) chunkQueued(depth int) {
	if i == nil {
		return
	}
	i.chunks.Inc()
	i.queueDepth.Set(float64(depth))
}

func (i *instruments) dequeued(depth int) {
	if i == nil {
		return
	}
	i.queueDepth.Set(float64(depth))
}

func (i *instruments) blocked() {
	if i == nil {
		return
	}
	i.backpressure.Inc()
}

func (i *instruments) wrote(n int) {
	if i == nil {
		return
	}
	i.bytes.Add(float64(n))
}

func (i *instruments) writeDone(d time.Duration) {
	if i == nil {
		return
	}
	i.writeDuration.Observe(d.Seconds())
}

func (i *instruments) flushDone(d time.Duration) {
	if i == nil {
		return
	}
	i.flushes.Inc()
	i.flushDuration.Observe(d.Seconds())
}

func (i *instruments) failed(op Op) {
	if i == nil {
		return
	}
	switch op {
	case OpWrite:
		i.writeErrors.Inc()
	case OpFlush:
		i.flushErrors.Inc()
	}
}
