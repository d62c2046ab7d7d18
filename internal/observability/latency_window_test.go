package observability

import (
	"testing"
	"time"
)

func TestLatencyWindowSnapshot(t *testing.T) {
	w := newLatencyWindow(8)
	w.observe(StageHandleText, 5*time.Millisecond)
	w.observe(StageHandleText, 7*time.Millisecond)
	w.observe(StageHandleText, 9*time.Millisecond)
	w.observe(StageReminderLag, 120*time.Millisecond)

	snap := w.snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageHandleText {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageHandleText)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 9 || s.MaxMS != 9 {
		t.Fatalf("LastMS = %.2f, MaxMS = %.2f, want 9", s.LastMS, s.MaxMS)
	}
	if s.P50MS != 7 {
		t.Fatalf("P50MS = %.2f, want 7", s.P50MS)
	}
	if s.P95MS <= 7 || s.P95MS > 9 {
		t.Fatalf("P95MS = %.2f, want (7,9]", s.P95MS)
	}
}

func TestLatencyWindowWrapsAround(t *testing.T) {
	w := newLatencyWindow(2)
	for _, ms := range []int{100, 1, 2} {
		w.observe(StageHandleCallback, time.Duration(ms)*time.Millisecond)
	}
	s := w.snapshot().Stages[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.MaxMS != 2 {
		t.Fatalf("MaxMS = %.2f, want 2 after the oldest sample was overwritten", s.MaxMS)
	}
}

func TestLatencyWindowIgnoresInvalidSamples(t *testing.T) {
	w := newLatencyWindow(4)
	w.observe("", time.Millisecond)
	w.observe(StageHandleText, -time.Millisecond)
	if got := len(w.snapshot().Stages); got != 0 {
		t.Fatalf("len(Stages) = %d, want 0", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTaskEvent("created")
	m.ObserveLatency(StageHandleText, time.Millisecond)
	m.ObserveFireLag(time.Second)
	if got := len(m.SnapshotLatency().Stages); got != 0 {
		t.Fatalf("len(Stages) = %d, want 0", got)
	}
}
