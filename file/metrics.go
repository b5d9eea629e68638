package file

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors maintained by a Registry.
type Metrics struct {
	Registered prometheus.Counter
	Rejected   prometheus.Counter
	Finished   *prometheus.CounterVec
	Active     prometheus.Gauge
}

// NewMetrics creates the registry collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filenode",
			Subsystem: "registry",
			Name:      "transfers_registered_total",
			Help:      "Number of transfers accepted by the registry.",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filenode",
			Subsystem: "registry",
			Name:      "transfers_rejected_total",
			Help:      "Number of registrations rejected because the registry is stopping or the id is invalid.",
		}),
		Finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filenode",
			Subsystem: "registry",
			Name:      "transfers_finished_total",
			Help:      "Number of transfers that reached a terminal status, by status.",
		}, []string{"status"}),
		Active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "filenode",
			Subsystem: "registry",
			Name:      "transfers_active",
			Help:      "Number of transfers that are pending, in progress or paused.",
		}),
	}
}

// finished records a live handle moving to the terminal status s.
func (m *Metrics) finished(s Status) {
	m.Finished.WithLabelValues(s.String()).Inc()
	m.Active.Dec()
}
