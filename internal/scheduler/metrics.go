package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics инкапсулирует Prometheus-метрики планировщика.
// События с ExcludeFromTelemetry() сюда не попадают.
type Metrics struct {
	scheduled *prometheus.CounterVec
	fired     *prometheus.CounterVec
	failed    *prometheus.CounterVec
	cancelled prometheus.Counter
	pending   prometheus.Gauge
	fireLag   prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg. reg == nil — метрики не регистрируются
// (удобно для тестов, где создаётся много планировщиков).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_scheduled_total",
			Help:      "Число запланированных событий по типу.",
		}, []string{"kind"}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_fired_total",
			Help:      "Число выполненных событий по типу.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_failed_total",
			Help:      "Число событий, завершившихся ошибкой или паникой.",
		}, []string{"kind"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Name:      "events_cancelled_total",
			Help:      "Число отменённых до срабатывания событий.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scheduler",
			Name:      "events_pending",
			Help:      "Количество событий в очереди.",
		}),
		fireLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Name:      "fire_lag_seconds",
			Help:      "Задержка фактического срабатывания относительно запланированного времени.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.scheduled, m.fired, m.failed, m.cancelled, m.pending, m.fireLag)
	}
	return m
}

func (m *Metrics) onScheduled(ev Event, pending int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	if ev.ExcludeFromTelemetry() {
		return
	}
	m.scheduled.WithLabelValues(ev.Kind()).Inc()
}

func (m *Metrics) onFired(ev Event, lagSeconds float64, pending int, failed bool) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	if ev.ExcludeFromTelemetry() {
		return
	}
	m.fired.WithLabelValues(ev.Kind()).Inc()
	m.fireLag.Observe(lagSeconds)
	if failed {
		m.failed.WithLabelValues(ev.Kind()).Inc()
	}
}

func (m *Metrics) onCancelled(n int, pending int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	if n > 0 {
		m.cancelled.Add(float64(n))
	}
}
