package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	refreshes      *prometheus.CounterVec
	refreshWaiters prometheus.Gauge
}

// NewMetrics builds the client collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_console_client_requests_total",
				Help: "Outbound API requests by method and status class.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_console_client_request_duration_seconds",
				Help:    "Outbound API request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_console_client_token_refresh_total",
				Help: "Access token refresh attempts by result.",
			},
			[]string{"result"},
		),
		refreshWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_console_client_refresh_waiters",
			Help: "Requests currently parked behind a token refresh.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.refreshes, m.refreshWaiters)
	}
	return m
}

func (m *Metrics) RequestCounter() *prometheus.CounterVec {
	return m.requests
}

func (m *Metrics) RefreshCounter() *prometheus.CounterVec {
	return m.refreshes
}

func (m *Metrics) RefreshWaiters() prometheus.Gauge {
	return m.refreshWaiters
}

func statusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code == 401:
		return "401"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
