package writer

import (
	"errors"
	"fmt"
	"sync"

	tierrors "github.com/vnykmshr/threadio/pkg/common/errors"
)

// ErrWriterClosed is returned when a Proxy is used after its lifecycle has ended.
// It wraps the shared ErrClosed.
var ErrWriterClosed = fmt.Errorf("writer: %w", tierrors.ErrClosed)

// Op identifies the sink operation that failed.
type Op int

const (
	// OpWrite marks a failure returned by the sink's Write.
	OpWrite Op = iota + 1

	// OpFlush marks a failure returned by the sink's Flush.
	OpFlush
)

func (o Op) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// SinkError is a failure raised by the sink on the worker goroutine and
// reported to the producer. Error returns the sink's message unchanged, so
// callers can match on the exact text the sink produced.
type SinkError struct {
	Op  Op
	Err error
}

func (e *SinkError) Error() string {
	return e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// IsWriteFailure reports whether err is a sink Write failure.
func IsWriteFailure(err error) bool {
	var serr *SinkError
	return errors.As(err, &serr) && serr.Op == OpWrite
}

// IsFlushFailure reports whether err is a sink Flush failure.
func IsFlushFailure(err error) bool {
	var serr *SinkError
	return errors.As(err, &serr) && serr.Op == OpFlush
}

// errorSlot holds the first sink failure. Once set it never changes.
type errorSlot struct {
	mu  sync.RWMutex
	err error
}

// set records err unless a failure is already recorded, and reports whether it did.
func (s *errorSlot) set(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false
	}
	s.err = err
	return true
}

func (s *errorSlot) load() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
