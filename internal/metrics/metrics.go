// Package metrics exposes Prometheus collectors for editor updates and
// reconciliation.
//
// A nil *Collector is valid and records nothing, so callers never need
// to check whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Update results.
const (
	ResultCommitted = "committed"
	ResultDiscarded = "discarded"
	ResultFailed    = "failed"
)

// Collector holds the editor's metrics.
type Collector struct {
	updates  *prometheus.CounterVec
	duration prometheus.Histogram
	ops      *prometheus.CounterVec
	keys     prometheus.Gauge
}

// New creates a collector and registers it with reg.
// A nil reg registers nothing; the collector still counts.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "richtext_updates_total",
				Help: "Total number of update transactions by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "richtext_update_duration_seconds",
				Help:    "Duration of update transactions, including reconciliation",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "richtext_reconcile_ops_total",
				Help: "Total number of rendered tree operations by kind",
			},
			[]string{"op"},
		),
		keys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "richtext_keys_issued",
				Help: "Number of node keys allocated by the editor",
			},
		),
	}
	if reg != nil {
		for _, col := range []prometheus.Collector{c.updates, c.duration, c.ops, c.keys} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// ObserveUpdate records one finished update.
func (c *Collector) ObserveUpdate(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.updates.WithLabelValues(result).Inc()
	c.duration.Observe(d.Seconds())
}

// AddOps records n applied operations of kind op.
func (c *Collector) AddOps(op string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ops.WithLabelValues(op).Add(float64(n))
}

// SetKeysIssued records the allocator's issued key count.
func (c *Collector) SetKeysIssued(n uint64) {
	if c == nil {
		return
	}
	c.keys.Set(float64(n))
}
