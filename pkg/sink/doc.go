/*
Package sink provides destinations for the write proxy in package writer.

Every sink implements Write, Flush and Close. Create builds one from a Config:

	s, err := sink.Create(sink.Config{
		Kind:        sink.KindFile,
		Path:        "events.log",
		Compression: sink.ZSTD,
	})

File sinks write through an optional encoder (gzip, zstd, lz4 or a single-entry
zip) and add the matching extension. Flush pushes the encoder's buffered output
to the file and, with Config.Sync, fsyncs it.

Redis sinks buffer in memory and append to a key, or push a list element, on
every Flush. Readers of the key never see bytes that were not flushed.

Throttle wraps any sink with a byte-rate token bucket, which is handy for
reproducing a slow destination. DiscardSink and MemorySink are in-process
sinks for benchmarks, tests and examples.
*/
package sink
