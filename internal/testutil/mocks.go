package testutil

import (
	"errors"
	"sync"
	"time"
)

// MockClock implements Clock interface for testing with controllable time.
// This is used by the rate limiter tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// MockSink is a test sink that only publishes written bytes when flushed.
// Writes land in a private cache and become visible through Data after Flush,
// which makes it possible to observe whether a proxy flushed or not.
//
// A positive write limit clips every Write to at most that many bytes,
// reporting a short write without an error.
type MockSink struct {
	mu         sync.Mutex
	cache      []byte
	data       []byte
	limit      int
	writeErr   error
	flushErr   error
	writeDelay time.Duration
	panicMsg   string
	writeCount int
	flushCount int
}

// NewMockSink creates a MockSink that accepts at most limit bytes per Write.
// A limit of zero or less means unlimited.
func NewMockSink(limit int) *MockSink {
	return &MockSink{limit: limit}
}

// Write implements io.Writer.
func (s *MockSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeCount++

	if s.writeDelay > 0 {
		time.Sleep(s.writeDelay)
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.writeErr != nil {
		return 0, s.writeErr
	}

	n := len(p)
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}
	s.cache = append(s.cache, p[:n]...)
	return n, nil
}

// Flush publishes the cached bytes.
func (s *MockSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushCount++

	if s.flushErr != nil {
		return s.flushErr
	}
	s.data = append(s.data, s.cache...)
	s.cache = s.cache[:0]
	return nil
}

// Data returns a copy of the flushed bytes.
func (s *MockSink) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Pending returns the number of written but unflushed bytes.
func (s *MockSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// WriteCount returns the number of Write calls.
func (s *MockSink) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCount
}

// FlushCount returns the number of Flush calls.
func (s *MockSink) FlushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushCount
}

// FailWrites makes every subsequent Write fail with msg.
func (s *MockSink) FailWrites(msg string) *MockSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = errors.New(msg)
	return s
}

// FailFlushes makes every subsequent Flush fail with msg.
func (s *MockSink) FailFlushes(msg string) *MockSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushErr = errors.New(msg)
	return s
}

// PanicOnWrite makes every subsequent Write panic with msg.
func (s *MockSink) PanicOnWrite(msg string) *MockSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panicMsg = msg
	return s
}

// SetWriteDelay configures a delay for each write operation.
func (s *MockSink) SetWriteDelay(delay time.Duration) *MockSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeDelay = delay
	return s
}

// ZeroWriter is a sink whose Write reports success while accepting nothing.
type ZeroWriter struct{}

// Write implements io.Writer.
func (ZeroWriter) Write(p []byte) (int, error) { return 0, nil }

// Flush implements the sink flush contract.
func (ZeroWriter) Flush() error { return nil }
