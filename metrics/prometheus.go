// Package metrics exports cache events to Prometheus.
package metrics

import (
	"github.com/goobie-bot/goobie/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus implements types.Metrics with one counter per cache event.
type Prometheus struct {
	Hits        prometheus.Counter
	Misses      prometheus.Counter
	Sets        *prometheus.CounterVec
	Deletes     prometheus.Counter
	Clears      prometheus.Counter
	Evictions   prometheus.Counter
	Expirations prometheus.Counter
}

// NewPrometheus registers the cache counters on reg under namespace.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache reads that returned a live value",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads that found nothing or an expired entry",
		}),
		Sets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Cache writes by category",
		}, []string{"category"}),
		Deletes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "deletes_total",
			Help:      "Explicit deletes that removed an entry",
		}),
		Clears: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Clear operations, full or by category",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Live entries dropped to respect the entry limit",
		}),
		Expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expirations_total",
			Help:      "Entries removed because their TTL passed",
		}),
	}
}

func (p *Prometheus) Hit()                { p.Hits.Inc() }
func (p *Prometheus) Miss()               { p.Misses.Inc() }
func (p *Prometheus) Set(category string) { p.Sets.WithLabelValues(category).Inc() }
func (p *Prometheus) Delete()             { p.Deletes.Inc() }
func (p *Prometheus) Clear()              { p.Clears.Inc() }
func (p *Prometheus) Eviction()           { p.Evictions.Inc() }
func (p *Prometheus) Expire()             { p.Expirations.Inc() }

// RegisterGauges exposes live values read at scrape time: the entry count and
// the current hit rate.
func RegisterGauges(reg prometheus.Registerer, namespace string, stats func() types.Stats) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Entries currently stored, expired ones not yet purged included",
	}, func() float64 { return float64(stats().TotalEntries) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hit_rate_percent",
		Help:      "Hits over total requests since start, as a percentage",
	}, func() float64 { return stats().HitRate })
}
