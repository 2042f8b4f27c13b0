// Package metrics provides Prometheus instrumentation for threadio components.
//
// A Registry bundles the collectors used by the write proxy. Pass one to
// writer.Config.Metrics to have every proxy built from that config report
// into it, labelled by writer.Config.Name.
//
// # Quick Start
//
//	registry := metrics.NewRegistry(prometheus.NewRegistry())
//
//	cfg := writer.DefaultConfig()
//	cfg.Name = "audit_log"
//	cfg.Metrics = registry
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// Collectors are registered when the Registry is built, so build one
// Registry per Prometheus registerer and share it between proxies.
//
// # Available Metrics
//
//   - threadio_writer_chunks_total: chunks handed to the write worker
//   - threadio_writer_bytes_written_total: bytes accepted by the sink
//   - threadio_writer_flushes_total: successful sink flushes
//   - threadio_writer_errors_total{op}: sink failures, op is "write" or "flush"
//   - threadio_writer_queue_depth: chunks and commands waiting for the worker
//   - threadio_sink_write_duration_seconds: time per chunk write
//   - threadio_sink_flush_duration_seconds: time per sink flush
//   - threadio_backpressure_events_total: producer waits on a full queue
//
// Every metric carries a writer_name label.
package metrics
