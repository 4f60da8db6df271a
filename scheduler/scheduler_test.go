package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func counter(n *atomic.Int32) Action {
	return func(ctx context.Context) error {
		n.Add(1)
		return nil
	}
}

func TestFiresAtDeadline(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	var runs atomic.Int32

	h := s.Schedule("msg-1", epoch.Add(10*time.Second), counter(&runs))

	clock.Advance(9 * time.Second)
	if runs.Load() != 0 {
		t.Fatal("action ran before its deadline")
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}

	clock.Advance(time.Second)
	if runs.Load() != 1 {
		t.Fatalf("action ran %d times, want 1", runs.Load())
	}
	if h.State() != StateFired {
		t.Errorf("state = %v, want fired", h.State())
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}

	clock.Advance(time.Hour)
	if runs.Load() != 1 {
		t.Errorf("action ran %d times, want exactly 1", runs.Load())
	}
}

func TestCancelBeforeDeadline(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	var runs atomic.Int32

	h := s.Schedule("msg-1", epoch.Add(10*time.Second), counter(&runs))
	if !s.Cancel(h) {
		t.Fatal("Cancel of a pending entry should succeed")
	}
	if s.Cancel(h) {
		t.Error("second Cancel should be a no-op")
	}

	clock.Advance(time.Minute)
	if runs.Load() != 0 {
		t.Errorf("cancelled action ran %d times", runs.Load())
	}
	if h.State() != StateCancelled {
		t.Errorf("state = %v, want cancelled", h.State())
	}
	if clock.Waiting() != 0 {
		t.Errorf("%d timers still armed", clock.Waiting())
	}
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	var runs atomic.Int32

	h := s.Schedule("msg-1", epoch.Add(time.Second), counter(&runs))
	clock.Advance(time.Second)

	if s.Cancel(h) {
		t.Error("Cancel after fire should report false")
	}
	if s.CancelID("msg-1") {
		t.Error("CancelID after fire should report false")
	}
	if h.State() != StateFired {
		t.Errorf("state = %v, want fired", h.State())
	}
}

func TestCancelNilAndUnknown(t *testing.T) {
	s := New(NewManualClock(epoch), zap.NewNop())
	if s.Cancel(nil) {
		t.Error("Cancel(nil) should be false")
	}
	if s.CancelID("nope") {
		t.Error("CancelID(unknown) should be false")
	}
}

func TestDuplicateScheduleReturnsExistingHandle(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	var first, second atomic.Int32

	h1 := s.Schedule("msg-1", epoch.Add(time.Second), counter(&first))
	h2 := s.Schedule("msg-1", epoch.Add(time.Hour), counter(&second))
	if h1 != h2 {
		t.Fatal("duplicate Schedule should return the pending handle")
	}

	clock.Advance(time.Hour)
	if first.Load() != 1 || second.Load() != 0 {
		t.Errorf("runs = %d/%d, want 1/0", first.Load(), second.Load())
	}
}

func TestIndependentDeadlines(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())

	var mu sync.Mutex
	var order []string
	record := func(id string) Action {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, id)
			return nil
		}
	}

	s.Schedule("c", epoch.Add(3*time.Second), record("c"))
	s.Schedule("a", epoch.Add(1*time.Second), record("a"))
	hb := s.Schedule("b", epoch.Add(2*time.Second), record("b"))
	s.Cancel(hb)

	clock.Advance(5 * time.Second)
	if fmt.Sprint(order) != "[a c]" {
		t.Errorf("order = %v, want [a c]", order)
	}
}

func TestOnDoneReceivesActionError(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	boom := errors.New("boom")

	var got error
	s.OnDone = func(h *Handle, err error) { got = err }
	s.Schedule("x", epoch, func(ctx context.Context) error { return boom })
	clock.Advance(0)

	if !errors.Is(got, boom) {
		t.Errorf("OnDone error = %v, want boom", got)
	}
}

func TestStopCancelsPending(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock, zap.NewNop())
	var runs atomic.Int32

	for i := 0; i < 5; i++ {
		s.Schedule(fmt.Sprint(i), epoch.Add(time.Second), counter(&runs))
	}
	s.Stop()
	clock.Advance(time.Minute)

	if runs.Load() != 0 || s.Pending() != 0 {
		t.Errorf("runs = %d, pending = %d after Stop; want 0, 0", runs.Load(), s.Pending())
	}
}

func TestSystemClockFires(t *testing.T) {
	s := New(SystemClock{}, zap.NewNop())
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("x", time.Now().Add(10*time.Millisecond), func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("action did not fire on the system clock")
	}
}

// Every entry ends exactly once no matter how cancel races the timer.
func TestExactlyOnceUnderRaces(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New(SystemClock{}, zap.NewNop())
		defer s.Stop()

		n := rapid.IntRange(1, 30).Draw(rt, "entries")
		runs := make([]atomic.Int32, n)
		cancelled := make([]atomic.Bool, n)
		handles := make([]*Handle, n)

		var fired sync.WaitGroup
		for i := 0; i < n; i++ {
			delay := time.Duration(rapid.IntRange(0, 2000).Draw(rt, fmt.Sprintf("delay_%d", i))) * time.Microsecond
			fired.Add(1)
			handles[i] = s.Schedule(fmt.Sprint(i), time.Now().Add(delay), func(ctx context.Context) error {
				runs[i].Add(1)
				fired.Done()
				return nil
			})
		}

		cancelAt := make([]time.Duration, n)
		for i := range cancelAt {
			cancelAt[i] = time.Duration(rapid.IntRange(0, 2000).Draw(rt, fmt.Sprintf("cancelAt_%d", i))) * time.Microsecond
		}

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				time.Sleep(cancelAt[i])
				if s.Cancel(handles[i]) {
					cancelled[i].Store(true)
					fired.Done()
				}
			}(i)
		}
		wg.Wait()
		fired.Wait()

		for i := 0; i < n; i++ {
			r := runs[i].Load()
			c := cancelled[i].Load()
			if (r == 1) == c || r > 1 {
				rt.Fatalf("entry %d: runs=%d cancelled=%v, want exactly one outcome", i, r, c)
			}
		}
	})
}
