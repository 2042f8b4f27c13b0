package writer

import (
	"io"
	"sync/atomic"

	"github.com/vnykmshr/threadio/pkg/streaming/channel"
)

// Sink is the destination a Proxy forwards to. Write may be slow; Flush makes
// everything written so far durable or visible.
type Sink interface {
	io.Writer
	Flush() error
}

// Proxy is the producer side of a write proxy. It batches writes into chunks
// and ships them to a single worker goroutine that owns the sink.
//
// A Proxy is only valid inside the body passed to Run or RunFinish and is not
// safe for concurrent use.
type Proxy struct {
	config  Config
	queue   channel.Bounded[message]
	free    channel.Bounded[*chunk]
	flushed chan struct{}
	errs    errorSlot
	worker  *worker
	inst    *instruments

	current *chunk
	closed  bool

	accepted int64
	chunks   int64
	flushes  int64
}

// Stats holds statistics about a proxy.
type Stats struct {
	// BytesAccepted is the number of bytes taken by Write, WriteString and ReadFrom.
	BytesAccepted int64

	// BytesWritten is the number of bytes the sink has accepted.
	BytesWritten int64

	// ChunksSent is the number of chunks handed to the worker.
	ChunksSent int64

	// Flushes is the number of completed Flush calls.
	Flushes int64

	// BlockedPushes is the number of times the producer waited for queue space.
	BlockedPushes int64

	// Queued is the number of messages waiting for the worker.
	Queued int

	// State is the worker's current state.
	State State
}

func newProxy(config Config, sink Sink) *Proxy {
	config = config.normalized()

	p := &Proxy{
		config:  config,
		flushed: make(chan struct{}, 1),
		inst:    newInstruments(config),
	}

	p.queue = channel.NewWithConfig[message](channel.Config{
		Capacity: config.QueueLen,
		OnBlock:  p.inst.blocked,
	})
	p.free = channel.New[*chunk](config.QueueLen)

	p.worker = &worker{
		sink:    sink,
		config:  config,
		queue:   p.queue,
		free:    p.free,
		flushed: p.flushed,
		errs:    &p.errs,
		inst:    p.inst,
		done:    make(chan struct{}),
	}
	go p.worker.run()

	return p
}

// Write copies b into chunks, handing each full chunk to the worker. It only
// blocks when the queue is full. It returns len(b) unless a sink failure was
// observed, in which case it returns the bytes accepted so far and that failure.
// Write never flushes the sink.
func (p *Proxy) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrWriterClosed
	}
	if err := p.errs.load(); err != nil {
		return 0, err
	}

	written := 0
	for written < len(b) {
		c := p.chunk()
		n := copy(c.buf[len(c.buf):cap(c.buf)], b[written:])
		c.buf = c.buf[:len(c.buf)+n]
		written += n
		atomic.AddInt64(&p.accepted, int64(n))

		if len(c.buf) == cap(c.buf) {
			if err := p.send(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// WriteString is like Write but takes a string.
func (p *Proxy) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// ReadFrom reads r until EOF straight into chunks, so io.Copy needs no
// intermediate buffer.
func (p *Proxy) ReadFrom(r io.Reader) (int64, error) {
	if p.closed {
		return 0, ErrWriterClosed
	}
	if err := p.errs.load(); err != nil {
		return 0, err
	}

	var total int64
	for {
		c := p.chunk()
		n, rerr := r.Read(c.buf[len(c.buf):cap(c.buf)])
		if n > 0 {
			c.buf = c.buf[:len(c.buf)+n]
			total += int64(n)
			atomic.AddInt64(&p.accepted, int64(n))
		}

		if len(c.buf) == cap(c.buf) {
			if err := p.send(); err != nil {
				return total, err
			}
		}

		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// Flush ships any buffered bytes, asks the worker to flush the sink and waits
// until it has. Everything written before Flush reaches the sink before the
// sink's Flush is called. The returned error is the first sink failure, if any.
func (p *Proxy) Flush() error {
	if p.closed {
		return ErrWriterClosed
	}
	if err := p.errs.load(); err != nil {
		return err
	}

	if p.current != nil && len(p.current.buf) > 0 {
		if err := p.send(); err != nil {
			return err
		}
	}

	if err := p.queue.Push(message{cmd: cmdFlush}); err != nil {
		return ErrWriterClosed
	}
	<-p.flushed
	atomic.AddInt64(&p.flushes, 1)

	return p.errs.load()
}

// Buffered returns the number of bytes in the current, not yet shipped chunk.
func (p *Proxy) Buffered() int {
	if p.current == nil {
		return 0
	}
	return len(p.current.buf)
}

// State returns the worker's current state.
func (p *Proxy) State() State {
	return p.worker.getState()
}

// Stats returns proxy statistics.
func (p *Proxy) Stats() Stats {
	qs := p.queue.Stats()
	return Stats{
		BytesAccepted: atomic.LoadInt64(&p.accepted),
		BytesWritten:  atomic.LoadInt64(&p.worker.written),
		ChunksSent:    atomic.LoadInt64(&p.chunks),
		Flushes:       atomic.LoadInt64(&p.flushes),
		BlockedPushes: qs.BlockedPushes,
		Queued:        p.queue.Len(),
		State:         p.State(),
	}
}

// chunk returns the chunk being filled, taking a recycled one when possible.
func (p *Proxy) chunk() *chunk {
	if p.current != nil {
		return p.current
	}
	if c, ok, _ := p.free.TryPop(); ok {
		c.buf = c.buf[:0]
		p.current = c
	} else {
		p.current = &chunk{buf: make([]byte, 0, p.config.ChunkSize)}
	}
	return p.current
}

// send pushes the current chunk to the worker and reports any recorded failure.
func (p *Proxy) send() error {
	c := p.current
	p.current = nil

	if err := p.queue.Push(message{cmd: cmdData, chunk: c}); err != nil {
		return ErrWriterClosed
	}
	atomic.AddInt64(&p.chunks, 1)
	p.inst.chunkQueued(p.queue.Len())

	return p.errs.load()
}

// shutdown ships the last partial chunk, closes the queue and joins the
// worker. It returns the first recorded failure.
func (p *Proxy) shutdown() error {
	if p.closed {
		<-p.worker.done
		return p.errs.load()
	}
	p.closed = true

	if p.current != nil && len(p.current.buf) > 0 && p.errs.load() == nil {
		_ = p.send()
	}
	p.current = nil

	_ = p.queue.Close()
	<-p.worker.done

	return p.errs.load()
}
