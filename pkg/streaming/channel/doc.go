/*
Package channel provides a bounded, blocking FIFO used to hand values from
one goroutine to another with backpressure.

Bounded is a generic ring buffer guarded by a mutex and two condition
variables. A producer calling Push waits while the buffer holds Cap()
values, which bounds the memory a fast producer can pin while a slow
consumer catches up. Pop waits while the buffer is empty.

# Basic Usage

	ch := channel.New[[]byte](4)

	go func() {
		for _, chunk := range chunks {
			ch.Push(chunk) // blocks when 4 chunks are already queued
		}
		ch.Close()
	}()

	for {
		chunk, err := ch.Pop()
		if err == channel.ErrChannelClosed {
			break
		}
		process(chunk)
	}

# Ordering and Close

Values come out in the order they were pushed. Close stops further pushes,
wakes every blocked producer with ErrChannelClosed, and lets the consumer
drain whatever was queued before Close; only then does Pop report
ErrChannelClosed. A control value pushed after N data values is therefore
always popped after all N of them.

# Non-blocking Access

TryPush and TryPop never wait. TryPush returns ErrChannelFull when there is
no room, which makes a Bounded channel usable as a fixed-size free list:

	free := channel.New[*buf](8)
	if err := free.TryPush(b); err == channel.ErrChannelFull {
		// drop b and let the garbage collector have it
	}

# Monitoring

Config.OnBlock fires each time a push has to wait, and Stats reports push
and pop counts, blocked pushes and the current utilization.

	ch := channel.NewWithConfig[int](channel.Config{
		Capacity: 16,
		OnBlock:  func() { backpressure.Inc() },
	})

All methods are safe for concurrent use.
*/
package channel
