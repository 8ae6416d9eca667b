package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the POS service counters, registered on the default
// prometheus registry and served from /metrics.
type Metrics struct {
	OrdersCompleted prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
}

// New registers and returns the service metrics.
func New() *Metrics {
	return &Metrics{
		OrdersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "orders_completed_total",
			Help:      "Orders fulfilled, settled and persisted.",
		}),
		OrdersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected, labelled by rejection reason.",
		}, []string{"reason"}),
	}
}
