package main

import (
	"context"
	"io"
	"time"

	"github.com/robfig/cron/v3"

	tictx "github.com/vnykmshr/threadio/pkg/common/context"
)

const copyBufferSize = 32 * 1024

// flusher is the part of the proxy copyStream needs.
type flusher interface {
	io.Writer
	Flush() error
}

// copyStream copies r into w until EOF. When schedule is set, w is flushed
// each time the schedule fires; the check runs between reads, so a blocked
// read delays a due flush until data or EOF arrives. Cancellation is also
// checked between reads.
func copyStream(ctx context.Context, w flusher, r io.Reader, schedule cron.Schedule, now func() time.Time) (int64, error) {
	buf := make([]byte, copyBufferSize)

	var next time.Time
	if schedule != nil {
		next = schedule.Next(now())
	}

	var total int64
	for {
		if tictx.IsCanceled(ctx) {
			return total, ctx.Err()
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			written, err := w.Write(buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
		}

		if schedule != nil {
			if t := now(); !t.Before(next) {
				if err := w.Flush(); err != nil {
					return total, err
				}
				next = schedule.Next(t)
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
