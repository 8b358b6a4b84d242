// Package metrics holds the Prometheus instruments of rate resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
)

// Metrics groups every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SourceFetchTotal    *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec
	CacheReadsTotal     *prometheus.CounterVec
	ResolutionsTotal    *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SourceFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxchain_source_fetch_total",
				Help: "Rate source fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		SourceFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxchain_source_fetch_duration_seconds",
				Help:    "Rate source fetch latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms .. ~5s
			},
			[]string{"source"},
		),
		CacheReadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxchain_cache_reads_total",
				Help: "Rate cache reads by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxchain_resolutions_total",
				Help: "Completed GetRates calls by completeness",
			},
			[]string{"complete"},
		),
	}
}

// ObserveFetch records one source fetch.
func (m *Metrics) ObserveFetch(source string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.SourceFetchTotal.WithLabelValues(source, outcome).Inc()
	m.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

// ObserveCacheRead records a cache read; hit means a successful read.
func (m *Metrics) ObserveCacheRead(hit bool) {
	if m == nil {
		return
	}
	outcome := OutcomeMiss
	if hit {
		outcome = OutcomeHit
	}
	m.CacheReadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveResolution records a finished GetRates call.
func (m *Metrics) ObserveResolution(complete bool) {
	if m == nil {
		return
	}
	label := "false"
	if complete {
		label = "true"
	}
	m.ResolutionsTotal.WithLabelValues(label).Inc()
}
