package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveDialogs     prometheus.Gauge
	DialogTransitions *prometheus.CounterVec
	TaskEvents        *prometheus.CounterVec
	PendingJobs       prometheus.Gauge
	JobsFired         *prometheus.CounterVec
	ReminderFireLag   prometheus.Histogram
	WSMessages        *prometheus.CounterVec
	OutboundDropped   *prometheus.CounterVec

	latency *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveDialogs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_dialogs",
			Help:      "Number of users with a dialog in a non-idle stage.",
		}),
		DialogTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_transitions_total",
			Help:      "Dialog stage transitions by source and target stage.",
		}, []string{"from", "to"}),
		TaskEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Task registry events by type.",
		}, []string{"event"}),
		PendingJobs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_pending_jobs",
			Help:      "Number of reminder jobs waiting to fire.",
		}),
		JobsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_fired_total",
			Help:      "Fired reminder jobs by outcome.",
		}, []string{"outcome"}),
		ReminderFireLag: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_fire_lag_ms",
			Help:      "Delay between a job's due time and its callback start in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000},
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		OutboundDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Outbound bot messages dropped by reason.",
		}, []string{"reason"}),
		latency: newLatencyWindow(256),
	}
}

func (m *Metrics) ObserveTaskEvent(event string) {
	if m == nil {
		return
	}
	m.TaskEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.DialogTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveJobFired(outcome string) {
	if m == nil {
		return
	}
	m.JobsFired.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFireLag(d time.Duration) {
	if m == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.ReminderFireLag.Observe(float64(d.Milliseconds()))
	m.latency.observe(StageReminderLag, d)
}

// ObserveLatency records how long handling one event took.
func (m *Metrics) ObserveLatency(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.observe(stage, d)
}

// SnapshotLatency summarises the recent latency samples per stage.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{GeneratedAt: time.Now().UTC(), Stages: []LatencyStats{}}
	}
	return m.latency.snapshot()
}

func (m *Metrics) SetPendingJobs(n int) {
	if m == nil {
		return
	}
	m.PendingJobs.Set(float64(n))
}

func (m *Metrics) SetActiveDialogs(n int) {
	if m == nil {
		return
	}
	m.ActiveDialogs.Set(float64(n))
}

func (m *Metrics) ObserveWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

func (m *Metrics) ObserveDropped(reason string) {
	if m == nil {
		return
	}
	m.OutboundDropped.WithLabelValues(reason).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
