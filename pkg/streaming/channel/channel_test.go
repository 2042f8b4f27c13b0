package channel

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/threadio/internal/testutil"
)

func TestNew(t *testing.T) {
	ch := New[int](10)
	testutil.AssertEqual(t, ch.Cap(), 10)
	testutil.AssertEqual(t, ch.Len(), 0)
	testutil.AssertEqual(t, ch.IsClosed(), false)
}

func TestNewClampsCapacity(t *testing.T) {
	for _, capacity := range []int{0, -3} {
		ch := New[int](capacity)
		testutil.AssertEqual(t, ch.Cap(), 1)
	}
}

func TestBasicPushPop(t *testing.T) {
	ch := New[int](5)
	defer ch.Close()

	testutil.AssertNoError(t, ch.Push(1))
	testutil.AssertNoError(t, ch.Push(2))
	testutil.AssertNoError(t, ch.Push(3))

	testutil.AssertEqual(t, ch.Len(), 3)

	val1, err := ch.Pop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, val1, 1)

	val2, err := ch.Pop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, val2, 2)

	testutil.AssertEqual(t, ch.Len(), 1)
}

func TestTryPushTryPop(t *testing.T) {
	ch := New[string](2)
	defer ch.Close()

	testutil.AssertNoError(t, ch.TryPush("hello"))
	testutil.AssertNoError(t, ch.TryPush("world"))
	testutil.AssertEqual(t, ch.TryPush("full"), ErrChannelFull)

	val, ok, err := ch.TryPop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, val, "hello")

	empty := New[int](5)
	defer empty.Close()

	_, ok, err = empty.TryPop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)
}

func TestPushBlocksWhenFull(t *testing.T) {
	blocked := testutil.NewCallbackTracker()
	ch := NewWithConfig[int](Config{
		Capacity: 2,
		OnBlock:  func() { blocked.Mark() },
	})
	defer ch.Close()

	testutil.AssertNoError(t, ch.Push(1))
	testutil.AssertNoError(t, ch.Push(2))

	pushed := make(chan error, 1)
	go func() {
		pushed <- ch.Push(3)
	}()

	testutil.Eventually(t, blocked.Called, time.Second, time.Millisecond)

	select {
	case <-pushed:
		t.Fatal("push should block while the channel is full")
	case <-time.After(10 * time.Millisecond):
	}

	val, err := ch.Pop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, val, 1)

	testutil.AssertNoError(t, <-pushed)
	testutil.AssertEqual(t, ch.Len(), 2)
	testutil.AssertEqual(t, ch.Stats().BlockedPushes, int64(1))
	blocked.AssertCallCount(t, 1)
}

func TestPopBlocksWhenEmpty(t *testing.T) {
	ch := New[int](1)
	defer ch.Close()

	popped := make(chan int, 1)
	go func() {
		v, err := ch.Pop()
		if err == nil {
			popped <- v
		}
	}()

	select {
	case <-popped:
		t.Fatal("pop should block while the channel is empty")
	case <-time.After(10 * time.Millisecond):
	}

	testutil.AssertNoError(t, ch.Push(42))
	testutil.AssertEqual(t, <-popped, 42)
}

func TestCloseDrainsRemaining(t *testing.T) {
	ch := New[int](3)

	testutil.AssertNoError(t, ch.Push(1))
	testutil.AssertNoError(t, ch.Push(2))
	testutil.AssertNoError(t, ch.Close())
	testutil.AssertNoError(t, ch.Close())

	testutil.AssertEqual(t, ch.Push(3), ErrChannelClosed)
	testutil.AssertEqual(t, ch.TryPush(3), ErrChannelClosed)

	v, err := ch.Pop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 1)

	v, ok, err := ch.TryPop()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, 2)

	_, err = ch.Pop()
	testutil.AssertEqual(t, err, ErrChannelClosed)

	_, _, err = ch.TryPop()
	testutil.AssertEqual(t, err, ErrChannelClosed)
}

func TestCloseWakesWaiters(t *testing.T) {
	t.Run("blocked pop", func(t *testing.T) {
		ch := New[int](1)

		errs := make(chan error, 1)
		go func() {
			_, err := ch.Pop()
			errs <- err
		}()

		time.Sleep(10 * time.Millisecond)
		testutil.AssertNoError(t, ch.Close())
		testutil.AssertEqual(t, <-errs, ErrChannelClosed)
	})

	t.Run("blocked push", func(t *testing.T) {
		ch := New[int](1)
		testutil.AssertNoError(t, ch.Push(1))

		errs := make(chan error, 1)
		go func() {
			errs <- ch.Push(2)
		}()

		time.Sleep(10 * time.Millisecond)
		testutil.AssertNoError(t, ch.Close())
		testutil.AssertEqual(t, <-errs, ErrChannelClosed)
	})
}

func TestFIFOUnderConcurrency(t *testing.T) {
	const n = 10000

	ch := New[int](3)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if err := ch.Push(i); err != nil {
				t.Errorf("push %d: %v", i, err)
				return
			}
		}
		_ = ch.Close()
	}()

	next := 0
	for {
		v, err := ch.Pop()
		if err == ErrChannelClosed {
			break
		}
		testutil.AssertNoError(t, err)
		if v != next {
			t.Fatalf("popped %d, want %d", v, next)
		}
		next++
	}
	wg.Wait()

	testutil.AssertEqual(t, next, n)

	stats := ch.Stats()
	testutil.AssertEqual(t, stats.PushCount, int64(n))
	testutil.AssertEqual(t, stats.PopCount, int64(n))
	testutil.AssertEqual(t, stats.BufferUtilization, 0.0)
}

func TestStatsUtilization(t *testing.T) {
	ch := New[int](4)
	defer ch.Close()

	testutil.AssertNoError(t, ch.Push(1))
	testutil.AssertNoError(t, ch.Push(2))

	stats := ch.Stats()
	testutil.AssertEqual(t, stats.BufferUtilization, 0.5)
	testutil.AssertEqual(t, stats.LastPushTime.IsZero(), false)
	testutil.AssertEqual(t, stats.LastPopTime.IsZero(), true)
}
