package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()
	s := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Wait()
	})
	return s
}

func TestScheduleFiresExactlyOnce(t *testing.T) {
	s := startScheduler(t)

	var calls atomic.Int32
	fired := make(chan Payload, 4)
	s.Schedule("reminder:u1:1", time.Now().Add(time.Second), Payload{UserID: "u1", TaskID: 1, Text: "buy milk"},
		func(_ context.Context, p Payload) error {
			calls.Add(1)
			fired <- p
			return nil
		})

	// Concurrent schedules for other jobs must not disturb the first one.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Schedule(fmt.Sprintf("other:%d", i), time.Now().Add(time.Hour), Payload{}, func(context.Context, Payload) error { return nil })
		}(i)
	}
	wg.Wait()

	select {
	case p := <-fired:
		assert.Equal(t, "buy milk", p.Text)
		assert.Equal(t, 1, p.TaskID)
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not fire")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 20, s.Pending())
}

func TestSchedulePastDueFiresImmediately(t *testing.T) {
	s := startScheduler(t)

	fired := make(chan struct{}, 1)
	s.Schedule("late", time.Now().Add(-time.Minute), Payload{}, func(context.Context, Payload) error {
		fired <- struct{}{}
		return nil
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("past-due job was dropped")
	}
}

func TestScheduleBeforeStartFiresAfterStart(t *testing.T) {
	s := New()
	fired := make(chan struct{}, 1)
	s.Schedule("early", time.Now().Add(10*time.Millisecond), Payload{}, func(context.Context, Payload) error {
		fired <- struct{}{}
		return nil
	})
	require.Equal(t, 1, s.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.Wait()
	}()
	s.Start(ctx)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("job scheduled before Start did not fire")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	s := startScheduler(t)

	var calls atomic.Int32
	s.Schedule("job", time.Now().Add(50*time.Millisecond), Payload{}, func(context.Context, Payload) error {
		calls.Add(1)
		return nil
	})
	assert.True(t, s.Cancel("job"))
	assert.False(t, s.Cancel("job"))
	assert.Equal(t, 0, s.Pending())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestCancelUnknownIsNoop(t *testing.T) {
	s := New()
	assert.False(t, s.Cancel("missing"))
}

func TestScheduleSameIDOverwrites(t *testing.T) {
	s := startScheduler(t)

	fired := make(chan string, 4)
	s.Schedule("job", time.Now().Add(30*time.Millisecond), Payload{Text: "first"}, func(_ context.Context, p Payload) error {
		fired <- p.Text
		return nil
	})
	s.Schedule("job", time.Now().Add(60*time.Millisecond), Payload{Text: "second"}, func(_ context.Context, p Payload) error {
		fired <- p.Text
		return nil
	})
	assert.Equal(t, 1, s.Pending())

	select {
	case got := <-fired:
		assert.Equal(t, "second", got)
	case <-time.After(time.Second):
		t.Fatalf("job did not fire")
	}
	select {
	case got := <-fired:
		t.Fatalf("overwritten job fired too: %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFailingCallbacksDoNotStopLaterJobs(t *testing.T) {
	s := startScheduler(t)

	now := time.Now()
	s.Schedule("panics", now.Add(10*time.Millisecond), Payload{}, func(context.Context, Payload) error {
		panic("boom")
	})
	s.Schedule("errors", now.Add(20*time.Millisecond), Payload{}, func(context.Context, Payload) error {
		return errors.New("send failed")
	})
	fired := make(chan struct{}, 1)
	s.Schedule("ok", now.Add(40*time.Millisecond), Payload{}, func(context.Context, Payload) error {
		fired <- struct{}{}
		return nil
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("job after a failing callback did not fire")
	}
}

func TestJobsFireInDueOrder(t *testing.T) {
	s := New()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	record := func(name string) Func {
		return func(context.Context, Payload) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			if len(order) == 3 {
				close(done)
			}
			return nil
		}
	}
	now := time.Now()
	s.Schedule("c", now.Add(90*time.Millisecond), Payload{}, record("c"))
	s.Schedule("a", now.Add(30*time.Millisecond), Payload{}, record("a"))
	s.Schedule("b", now.Add(60*time.Millisecond), Payload{}, record("b"))

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.Wait()
	}()
	s.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("not all jobs fired")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestFireAt(t *testing.T) {
	s := New()
	due := time.Date(2030, 4, 12, 15, 30, 0, 0, time.UTC)
	s.Schedule("job", due, Payload{}, func(context.Context, Payload) error { return nil })

	got, ok := s.FireAt("job")
	require.True(t, ok)
	assert.True(t, got.Equal(due))

	_, ok = s.FireAt("missing")
	assert.False(t, ok)
}

func TestWaitReturnsAfterContextCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after cancel")
	}
}
