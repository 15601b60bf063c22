// Package metrics exposes the latest evaluation as Prometheus gauges.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

type Metrics struct {
	Registry *prometheus.Registry

	serviceUp   *prometheus.GaugeVec
	statusCode  *prometheus.GaugeVec
	evaluations *prometheus.CounterVec
	lastRun     prometheus.Gauge
	unhealthy   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		serviceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "statusnotifier",
			Name:      "service_up",
			Help:      "1 when the last probe classified the service online, 0 otherwise.",
		}, []string{"service"}),
		statusCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "statusnotifier",
			Name:      "service_status_code",
			Help:      "HTTP status code of the last error response, 0 when online or offline.",
		}, []string{"service"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statusnotifier",
			Name:      "probe_results_total",
			Help:      "Probe outcomes by health tag.",
		}, []string{"status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "statusnotifier",
			Name:      "last_evaluation_timestamp_seconds",
			Help:      "Unix time of the last completed evaluation.",
		}),
		unhealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "statusnotifier",
			Name:      "unhealthy_services",
			Help:      "Number of services not online in the last evaluation.",
		}),
	}
	m.Registry.MustRegister(m.serviceUp, m.statusCode, m.evaluations, m.lastRun, m.unhealthy)
	return m
}

// Observe replaces the per-service gauges with the given evaluation.
func (m *Metrics) Observe(statuses []domain.ServiceStatus, at time.Time) {
	m.serviceUp.Reset()
	m.statusCode.Reset()
	for _, s := range statuses {
		up := 0.0
		if s.Healthy() {
			up = 1
		}
		m.serviceUp.WithLabelValues(s.Name).Set(up)
		m.statusCode.WithLabelValues(s.Name).Set(float64(s.StatusCode))
		m.evaluations.WithLabelValues(string(s.Status)).Inc()
	}
	m.unhealthy.Set(float64(len(domain.Unhealthy(statuses))))
	m.lastRun.Set(float64(at.Unix()))
}
