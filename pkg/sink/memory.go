package sink

import (
	"sync"
	"sync/atomic"
)

// DiscardSink drops everything and counts what it was given.
type DiscardSink struct {
	bytes   int64
	flushes int64
}

// NewDiscard creates a DiscardSink.
func NewDiscard() *DiscardSink {
	return &DiscardSink{}
}

func (d *DiscardSink) Write(p []byte) (int, error) {
	atomic.AddInt64(&d.bytes, int64(len(p)))
	return len(p), nil
}

func (d *DiscardSink) Flush() error {
	atomic.AddInt64(&d.flushes, 1)
	return nil
}

func (d *DiscardSink) Close() error { return nil }

// Bytes returns the number of bytes written.
func (d *DiscardSink) Bytes() int64 { return atomic.LoadInt64(&d.bytes) }

// Flushes returns the number of Flush calls.
func (d *DiscardSink) Flushes() int64 { return atomic.LoadInt64(&d.flushes) }

// MemorySink keeps written bytes private until Flush publishes them. A
// positive limit caps how much each Write accepts, producing short writes.
type MemorySink struct {
	mu      sync.Mutex
	limit   int
	pending []byte
	data    []byte
}

// NewMemory creates a MemorySink. A limit of zero or less means unlimited.
func NewMemory(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

func (m *MemorySink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(p)
	if m.limit > 0 && n > m.limit {
		n = m.limit
	}
	m.pending = append(m.pending, p[:n]...)
	return n, nil
}

func (m *MemorySink) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append(m.data, m.pending...)
	m.pending = m.pending[:0]
	return nil
}

// Close discards unflushed bytes.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	return nil
}

// Bytes returns a copy of the flushed bytes.
func (m *MemorySink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Pending returns the number of written but unflushed bytes.
func (m *MemorySink) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
