package writer

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/threadio/pkg/streaming/channel"
)

// State is the lifecycle state of a proxy's worker goroutine.
type State int32

const (
	// Running means the worker is forwarding chunks and flushes to the sink.
	Running State = iota

	// Draining means the worker no longer calls the sink. Either a failure was
	// recorded or the producer has shut down; queued input is consumed and
	// discarded and flush requests are still acknowledged.
	Draining

	// Terminated means the worker goroutine has exited.
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var errInvalidWrite = errors.New("sink returned invalid write count")

type command int

const (
	cmdData command = iota
	cmdFlush
)

// message is the unit carried from producer to worker.
type message struct {
	cmd   command
	chunk *chunk
}

// chunk is an owned byte buffer; len(buf) is the fill level.
type chunk struct {
	buf []byte
}

// worker owns the sink from start until it terminates.
type worker struct {
	sink    Sink
	config  Config
	queue   channel.Bounded[message]
	free    channel.Bounded[*chunk]
	flushed chan<- struct{}
	errs    *errorSlot
	inst    *instruments
	done    chan struct{}

	state   int32
	written int64

	// bytes written since the last successful flush, worker-only
	unflushed int64
}

func (w *worker) run() {
	defer close(w.done)
	defer w.setState(Terminated)

	for {
		msg, err := w.queue.Pop()
		if err != nil {
			break
		}
		w.inst.dequeued(w.queue.Len())

		switch msg.cmd {
		case cmdData:
			if w.healthy() {
				w.write(msg.chunk.buf)
			}
			// Pool full means the producer already has enough chunks.
			_ = w.free.TryPush(msg.chunk)
		case cmdFlush:
			if w.healthy() {
				w.flush()
			}
			w.flushed <- struct{}{}
		}
	}

	w.setState(Draining)
	if w.config.FlushOnClose && w.healthy() {
		w.flush()
	}
}

func (w *worker) healthy() bool {
	return w.errs.load() == nil
}

// write hands b to the sink until all of it is accepted or the sink fails.
func (w *worker) write(b []byte) {
	start := time.Now()
	for len(b) > 0 {
		n, err := w.sinkWrite(b)
		if n < 0 || n > len(b) {
			n, err = 0, errInvalidWrite
		}
		if n > 0 {
			atomic.AddInt64(&w.written, int64(n))
			w.unflushed += int64(n)
			w.inst.wrote(n)
		}
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			w.fail(OpWrite, err)
			return
		}
		b = b[n:]
	}
	w.inst.writeDone(time.Since(start))
}

func (w *worker) flush() {
	start := time.Now()
	if err := w.sinkFlush(); err != nil {
		w.fail(OpFlush, err)
		return
	}

	d := time.Since(start)
	w.inst.flushDone(d)
	if w.config.OnFlush != nil {
		w.config.OnFlush(w.unflushed, d)
	}
	w.unflushed = 0
}

func (w *worker) sinkWrite(b []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, panicError(r)
		}
	}()
	return w.sink.Write(b)
}

func (w *worker) sinkFlush() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return w.sink.Flush()
}

func panicError(r interface{}) error {
	return fmt.Errorf("sink panicked: %v\nStack trace:\n%s", r, debug.Stack())
}

// fail records err as the first failure, if none was recorded yet.
func (w *worker) fail(op Op, err error) {
	serr := &SinkError{Op: op, Err: err}
	if !w.errs.set(serr) {
		return
	}
	w.setState(Draining)
	w.inst.failed(op)
	if w.config.OnError != nil {
		w.config.OnError(serr)
	}
}

func (w *worker) setState(s State) {
	atomic.StoreInt32(&w.state, int32(s))
}

func (w *worker) getState() State {
	return State(atomic.LoadInt32(&w.state))
}
