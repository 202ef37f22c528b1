// Package metrics provides observability for the registry module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registry operation counts and critical path durations.
type Metrics struct {
	PagesCreated   prometheus.Counter
	PagesDestroyed prometheus.Counter
	NamesReserved  prometheus.Counter
	NamesReleased  prometheus.Counter

	OperationDuration *prometheus.HistogramVec
	OperationFailures *prometheus.CounterVec

	BalanceHeld prometheus.Gauge
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		PagesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_pages_created_total",
			Help: "Total number of pages created",
		}),
		PagesDestroyed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_pages_destroyed_total",
			Help: "Total number of pages destroyed",
		}),
		NamesReserved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_names_reserved_total",
			Help: "Total number of name reservations (including re-reservations)",
		}),
		NamesReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_names_released_total",
			Help: "Total number of name releases",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_operation_failures_total",
			Help: "Registry operations aborted, by error code",
		}, []string{"operation", "code"}),
		BalanceHeld: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "folio_balance_held_micropay",
			Help: "Current escrow balance held by the registry",
		}),
	}
}

// ObserveOperation records the duration of a registry operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncrementFailure records an aborted operation by error code.
func (m *Metrics) IncrementFailure(operation, code string) {
	m.OperationFailures.WithLabelValues(operation, code).Inc()
}
