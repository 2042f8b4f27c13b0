package channel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrChannelFull is returned by TryPush when the channel holds Cap() items.
var ErrChannelFull = errors.New("channel buffer is full")

// ErrChannelClosed is returned when pushing to a closed channel, or popping
// from a closed channel that has been drained.
var ErrChannelClosed = errors.New("channel is closed")

// Bounded is a fixed-capacity FIFO queue that blocks producers while full.
type Bounded[T any] interface {
	// Push appends a value, blocking while the channel is full.
	Push(value T) error

	// TryPush appends a value without blocking.
	TryPush(value T) error

	// Pop removes the oldest value, blocking while the channel is empty and open.
	// Values pushed before Close are still returned after Close.
	Pop() (T, error)

	// TryPop removes the oldest value without blocking.
	TryPop() (T, bool, error)

	// Close closes the channel for pushing and wakes every waiter.
	Close() error

	// IsClosed returns true if the channel is closed.
	IsClosed() bool

	// Len returns the current number of buffered elements.
	Len() int

	// Cap returns the buffer capacity.
	Cap() int

	// Stats returns channel statistics.
	Stats() Stats
}

// Stats holds statistics about channel usage.
type Stats struct {
	// PushCount is the total number of values accepted.
	PushCount int64

	// PopCount is the total number of values handed out.
	PopCount int64

	// BlockedPushes is the number of pushes that had to wait for space.
	BlockedPushes int64

	// BufferUtilization is the current buffer utilization (0.0 to 1.0).
	BufferUtilization float64

	// LastPushTime is the timestamp of the last accepted push.
	LastPushTime time.Time

	// LastPopTime is the timestamp of the last pop.
	LastPopTime time.Time
}

// Config holds configuration for a Bounded channel.
type Config struct {
	// Capacity is the maximum number of buffered values. Values below 1 are raised to 1.
	Capacity int

	// OnBlock is called, without the channel lock held, each time a push
	// finds the channel full and has to wait.
	OnBlock func()
}

// bounded implements Bounded.
type bounded[T any] struct {
	config Config
	buffer []T
	mu     sync.Mutex

	head   int
	tail   int
	count  int
	closed int32

	notFull  *sync.Cond
	notEmpty *sync.Cond

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a Bounded channel holding at most capacity values.
func New[T any](capacity int) Bounded[T] {
	return NewWithConfig[T](Config{Capacity: capacity})
}

// NewWithConfig creates a Bounded channel with the specified configuration.
func NewWithConfig[T any](config Config) Bounded[T] {
	if config.Capacity < 1 {
		config.Capacity = 1
	}

	ch := &bounded[T]{
		config: config,
		buffer: make([]T, config.Capacity),
	}

	ch.notFull = sync.NewCond(&ch.mu)
	ch.notEmpty = sync.NewCond(&ch.mu)

	return ch
}

// Push implements Bounded.Push.
func (ch *bounded[T]) Push(value T) error {
	ch.mu.Lock()

	if ch.count >= len(ch.buffer) && !ch.IsClosed() {
		ch.updateStats(func(s *Stats) { s.BlockedPushes++ })
		if ch.config.OnBlock != nil {
			ch.mu.Unlock()
			ch.config.OnBlock()
			ch.mu.Lock()
		}
		for ch.count >= len(ch.buffer) && !ch.IsClosed() {
			ch.notFull.Wait()
		}
	}

	if ch.IsClosed() {
		ch.mu.Unlock()
		return ErrChannelClosed
	}

	ch.addLocked(value)
	ch.mu.Unlock()

	ch.updateStats(func(s *Stats) {
		s.PushCount++
		s.LastPushTime = time.Now()
	})
	return nil
}

// TryPush implements Bounded.TryPush.
func (ch *bounded[T]) TryPush(value T) error {
	ch.mu.Lock()

	if ch.IsClosed() {
		ch.mu.Unlock()
		return ErrChannelClosed
	}
	if ch.count >= len(ch.buffer) {
		ch.mu.Unlock()
		return ErrChannelFull
	}

	ch.addLocked(value)
	ch.mu.Unlock()

	ch.updateStats(func(s *Stats) {
		s.PushCount++
		s.LastPushTime = time.Now()
	})
	return nil
}

// Pop implements Bounded.Pop.
func (ch *bounded[T]) Pop() (T, error) {
	var zero T

	ch.mu.Lock()
	for ch.count == 0 && !ch.IsClosed() {
		ch.notEmpty.Wait()
	}

	if ch.count == 0 {
		ch.mu.Unlock()
		return zero, ErrChannelClosed
	}

	value := ch.removeLocked()
	ch.mu.Unlock()

	ch.updateStats(func(s *Stats) {
		s.PopCount++
		s.LastPopTime = time.Now()
	})
	return value, nil
}

// TryPop implements Bounded.TryPop.
func (ch *bounded[T]) TryPop() (T, bool, error) {
	var zero T

	ch.mu.Lock()
	if ch.count == 0 {
		closed := ch.IsClosed()
		ch.mu.Unlock()
		if closed {
			return zero, false, ErrChannelClosed
		}
		return zero, false, nil
	}

	value := ch.removeLocked()
	ch.mu.Unlock()

	ch.updateStats(func(s *Stats) {
		s.PopCount++
		s.LastPopTime = time.Now()
	})
	return value, true, nil
}

// Close implements Bounded.Close.
func (ch *bounded[T]) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return nil // Already closed
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.notFull.Broadcast()
	ch.notEmpty.Broadcast()

	return nil
}

// IsClosed implements Bounded.IsClosed.
func (ch *bounded[T]) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) != 0
}

// Len implements Bounded.Len.
func (ch *bounded[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap implements Bounded.Cap.
func (ch *bounded[T]) Cap() int {
	return len(ch.buffer)
}

// Stats implements Bounded.Stats.
func (ch *bounded[T]) Stats() Stats {
	ch.statsMu.RLock()
	stats := ch.stats
	ch.statsMu.RUnlock()

	stats.BufferUtilization = float64(ch.Len()) / float64(len(ch.buffer))
	return stats
}

// addLocked appends a value and wakes one consumer (must hold lock).
func (ch *bounded[T]) addLocked(value T) {
	ch.buffer[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buffer)
	ch.count++
	ch.notEmpty.Signal()
}

// removeLocked takes the oldest value and wakes one producer (must hold lock).
func (ch *bounded[T]) removeLocked() T {
	value := ch.buffer[ch.head]
	var zero T
	ch.buffer[ch.head] = zero // Clear reference
	ch.head = (ch.head + 1) % len(ch.buffer)
	ch.count--
	ch.notFull.Signal()
	return value
}

// updateStats safely updates statistics.
func (ch *bounded[T]) updateStats(updater func(*Stats)) {
	ch.statsMu.Lock()
	defer ch.statsMu.Unlock()
	updater(&ch.stats)
}
