// Package scheduler runs one-shot jobs at their due instant.
//
// A single loop goroutine owns the timer. Schedule and Cancel only touch the
// pending set under a mutex and nudge the loop, so they never wait for a
// callback. Each fired callback runs on its own goroutine; errors and panics
// are logged and counted, never propagated.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ent0n29/remindbot/internal/observability"
)

// Payload identifies the reminder a job delivers.
type Payload struct {
	UserID string
	TaskID int
	Text   string
}

// Func is invoked when a job fires.
type Func func(ctx context.Context, p Payload) error

type Option func(*Scheduler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*job
	queue   jobQueue
	seq     uint64
	started bool

	wake    chan struct{}
	done    chan struct{}
	running sync.WaitGroup

	now     func() time.Time
	metrics *observability.Metrics
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs: make(map[string]*job),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the firing loop. It returns immediately; the loop stops when
// ctx is cancelled. Calling Start more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run(ctx)
}

// Wait blocks until the loop has exited and in-flight callbacks returned.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	s.running.Wait()
}

// Schedule registers a job. A job with the same id is replaced. Jobs whose
// fireAt is already past fire on the next loop iteration.
func (s *Scheduler) Schedule(id string, fireAt time.Time, p Payload, fn Func) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if old, ok := s.jobs[id]; ok {
		heap.Remove(&s.queue, old.index)
		delete(s.jobs, id)
	}
	s.seq++
	j := &job{id: id, fireAt: fireAt, payload: p, fn: fn, seq: s.seq}
	heap.Push(&s.queue, j)
	s.jobs[id] = j
	pending := len(s.jobs)
	s.mu.Unlock()

	s.metrics.SetPendingJobs(pending)
	s.nudge()
}

// Cancel removes a pending job and reports whether one was removed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		heap.Remove(&s.queue, j.index)
		delete(s.jobs, id)
	}
	pending := len(s.jobs)
	s.mu.Unlock()

	if ok {
		s.metrics.SetPendingJobs(pending)
		s.nudge()
	}
	return ok
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// FireAt reports when the job with the given id is due.
func (s *Scheduler) FireAt(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return j.fireAt, true
}

func (s *Scheduler) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		wait, hasNext := s.fireDue(ctx)

		var timerC <-chan time.Time
		if hasNext {
			timer.Reset(wait)
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timerC:
		}
	}
}

// fireDue pops every job that is due and dispatches it. It returns how long
// to wait for the next pending job.
func (s *Scheduler) fireDue(ctx context.Context) (time.Duration, bool) {
	s.mu.Lock()
	now := s.now()
	var due []*job
	for s.queue.Len() > 0 && !s.queue[0].fireAt.After(now) {
		j := heap.Pop(&s.queue).(*job)
		delete(s.jobs, j.id)
		due = append(due, j)
	}
	var wait time.Duration
	hasNext := s.queue.Len() > 0
	if hasNext {
		wait = s.queue[0].fireAt.Sub(now)
	}
	pending := len(s.jobs)
	s.mu.Unlock()

	if len(due) > 0 {
		s.metrics.SetPendingJobs(pending)
	}
	for _, j := range due {
		s.dispatch(ctx, j, now)
	}
	return wait, hasNext
}

func (s *Scheduler) dispatch(ctx context.Context, j *job, now time.Time) {
	s.metrics.ObserveFireLag(now.Sub(j.fireAt))
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		if err := s.invoke(ctx, j); err != nil {
			log.Printf("scheduler: job %s failed: %v", j.id, err)
			return
		}
		s.metrics.ObserveJobFired("ok")
	}()
}

func (s *Scheduler) invoke(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveJobFired("panic")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := j.fn(ctx, j.payload); err != nil {
		s.metrics.ObserveJobFired("error")
		return err
	}
	return nil
}
