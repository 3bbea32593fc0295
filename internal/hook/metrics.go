package hook

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks reward accounting activity.
type Metrics struct {
	swapsObserved prometheus.Counter
	swapsSkipped  *prometheus.CounterVec
	creditsTotal  prometheus.Counter
	pointsIssued  prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsRegistry *Metrics
)

// PointsMetrics returns the process-wide hook metrics, registering them on
// first use.
func PointsMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsRegistry = &Metrics{
			swapsObserved: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_swaps_observed_total",
				Help: "Count of post-swap notifications received.",
			}),
			swapsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "points_swaps_skipped_total",
				Help: "Count of notifications that earned no credit, by reason.",
			}, []string{"reason"}),
			creditsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_credits_total",
				Help: "Count of successful reward credits.",
			}),
			pointsIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "points_issued_total",
				Help: "Approximate total points issued across all pools.",
			}),
		}
		prometheus.MustRegister(
			metricsRegistry.swapsObserved,
			metricsRegistry.swapsSkipped,
			metricsRegistry.creditsTotal,
			metricsRegistry.pointsIssued,
		)
	})
	return metricsRegistry
}

func (m *Metrics) ObserveSwap() {
	if m == nil {
		return
	}
	m.swapsObserved.Inc()
}

func (m *Metrics) ObserveSkip(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.swapsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCredit(points *big.Int) {
	if m == nil {
		return
	}
	m.creditsTotal.Inc()
	if points != nil {
		value, _ := new(big.Float).SetInt(points).Float64()
		m.pointsIssued.Add(value)
	}
}
