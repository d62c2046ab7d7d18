package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Latency stages recorded by the bot and scheduler.
const (
	StageHandleText     = "handle_text"
	StageHandleCallback = "handle_callback"
	StageReminderLag    = "reminder_fire_lag"
)

type LatencyStats struct {
	Stage   string  `json:"stage"`
	Samples int     `json:"samples"`
	LastMS  float64 `json:"last_ms"`
	AvgMS   float64 `json:"avg_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	MaxMS   float64 `json:"max_ms"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	WindowSize  int            `json:"window_size"`
	Stages      []LatencyStats `json:"stages"`
}

// latencyWindow keeps the most recent samples per stage in ring buffers.
type latencyWindow struct {
	mu    sync.RWMutex
	size  int
	rings map[string]*ring
}

type ring struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = 256
	}
	return &latencyWindow{
		size:  size,
		rings: make(map[string]*ring),
	}
}

func (w *latencyWindow) observe(stage string, d time.Duration) {
	if stage == "" || d < 0 {
		return
	}
	ms := float64(d) / float64(time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.rings[stage]
	if !ok {
		r = &ring{values: make([]float64, w.size)}
		w.rings[stage] = r
	}
	r.values[r.next] = ms
	r.last = ms
	r.next++
	if r.next == len(r.values) {
		r.next = 0
		r.filled = true
	}
}

func (w *latencyWindow) snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.rings))
	for name := range w.rings {
		names = append(names, name)
	}
	sort.Strings(names)

	stages := make([]LatencyStats, 0, len(names))
	for _, name := range names {
		r := w.rings[name]
		n := r.next
		if r.filled {
			n = len(r.values)
		}
		if n == 0 {
			continue
		}
		samples := append([]float64(nil), r.values[:n]...)
		sort.Float64s(samples)
		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		stages = append(stages, LatencyStats{
			Stage:   name,
			Samples: n,
			LastMS:  round2(r.last),
			AvgMS:   round2(sum / float64(n)),
			P50MS:   round2(quantile(samples, 0.50)),
			P95MS:   round2(quantile(samples, 0.95)),
			MaxMS:   round2(samples[n-1]),
		})
	}
	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Stages:      stages,
	}
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
