// metrics — prometheus-коллекторы ядра сессии и исходящих вызовов.
// Все методы безопасны для nil-получателя: компоненты работают и без метрик.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scan_console"

// Metrics агрегирует коллекторы шлюза.
type Metrics struct {
	Refreshes       *prometheus.CounterVec
	RefreshWaiters  prometheus.Counter
	Replays         prometheus.Counter
	ForcedLogouts   prometheus.Counter
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg. Для тестов передавайте prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Refresh-token exchanges by result.",
		}, []string{"result"}),
		RefreshWaiters: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_waiters_total",
			Help:      "Requests queued behind an in-flight refresh.",
		}),
		Replays: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_replays_total",
			Help:      "Requests replayed with a refreshed access token.",
		}),
		ForcedLogouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_logouts_total",
			Help:      "Sessions terminated after a failed refresh.",
		}),
		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Outgoing backend requests by method and status code.",
		}, []string{"method", "code"}),
		BackendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Outgoing backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// RefreshResult учитывает обмен refresh-токена: success|failure.
func (m *Metrics) RefreshResult(ok bool) {
	if m == nil {
		return
	}

	result := "success"
	if !ok {
		result = "failure"
		m.ForcedLogouts.Inc()
	}

	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Waiter() {
	if m == nil {
		return
	}
	m.RefreshWaiters.Inc()
}

func (m *Metrics) Replay() {
	if m == nil {
		return
	}
	m.Replays.Inc()
}

// Backend учитывает исходящий вызов. status == 0 — транспортная ошибка.
func (m *Metrics) Backend(method string, status int, dur time.Duration) {
	if m == nil {
		return
	}

	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}

	m.BackendRequests.WithLabelValues(method, code).Inc()
	m.BackendDuration.WithLabelValues(method).Observe(dur.Seconds())
}
