package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var counter int32
		go func() {
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&counter, 1)
		}()

		Eventually(t, func() bool {
			return atomic.LoadInt32(&counter) == 1
		}, time.Second, 10*time.Millisecond)
	})
}

func TestCallbackTracker(t *testing.T) {
	t.Run("basic tracking", func(t *testing.T) {
		tracker := NewCallbackTracker()

		if tracker.Called() {
			t.Error("tracker should not be called initially")
		}

		tracker.Mark()

		if !tracker.Called() {
			t.Error("tracker should be called after Mark()")
		}
		tracker.AssertCallCount(t, 1)
	})

	t.Run("value tracking", func(t *testing.T) {
		tracker := NewCallbackTracker()

		tracker.Mark("first")
		tracker.Mark("second")
		if tracker.Value() != "second" {
			t.Errorf("value = %v, want second", tracker.Value())
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		tracker := NewCallbackTracker()

		const goroutines = 10
		const callsPerGoroutine = 100

		done := make(chan bool, goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				for j := 0; j < callsPerGoroutine; j++ {
					tracker.Mark()
				}
				done <- true
			}()
		}

		for i := 0; i < goroutines; i++ {
			<-done
		}

		tracker.AssertCallCount(t, goroutines*callsPerGoroutine)
	})
}

func TestMockSink(t *testing.T) {
	t.Run("publishes only on flush", func(t *testing.T) {
		s := NewMockSink(0)

		n, err := s.Write([]byte("hello"))
		AssertNoError(t, err)
		AssertEqual(t, n, 5)
		AssertEqual(t, len(s.Data()), 0)
		AssertEqual(t, s.Pending(), 5)

		AssertNoError(t, s.Flush())
		AssertEqual(t, string(s.Data()), "hello")
		AssertEqual(t, s.Pending(), 0)
	})

	t.Run("clips writes", func(t *testing.T) {
		s := NewMockSink(2)

		n, err := s.Write([]byte("hello"))
		AssertNoError(t, err)
		AssertEqual(t, n, 2)
	})

	t.Run("failures", func(t *testing.T) {
		s := NewMockSink(0).FailWrites("write err").FailFlushes("flush err")

		_, err := s.Write([]byte("x"))
		AssertErrorText(t, err, "write err")
		AssertErrorText(t, s.Flush(), "flush err")
		AssertEqual(t, s.WriteCount(), 1)
		AssertEqual(t, s.FlushCount(), 1)
	})
}

func TestMockClock(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewMockClock(start)

	AssertEqual(t, clock.Now(), start)
	clock.Advance(time.Second)
	AssertEqual(t, clock.Now(), start.Add(time.Second))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}

	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline is too far in the future")
	}
}

func TestAssertions(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, context.Canceled)
	AssertErrorText(t, errors.New("flush err"), "flush err")
	AssertEqual(t, 42, 42)
	AssertNotEqual(t, 1, 2)
	AssertBytes(t, []byte("abc"), []byte("abc"))
}
