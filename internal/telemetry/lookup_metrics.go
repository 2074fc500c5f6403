package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dukerupert/zipfinder/internal/domain"
)

// LookupMetrics holds Prometheus metrics for zip code lookups.
type LookupMetrics struct {
	LookupsTotal    *prometheus.CounterVec
	LookupDuration  *prometheus.HistogramVec
	RegionsRendered prometheus.Counter
}

// NewLookupMetrics creates and registers lookup metrics on reg.
func NewLookupMetrics(namespace string, reg prometheus.Registerer) *LookupMetrics {
	if namespace == "" {
		namespace = "zipfinder"
	}
	factory := promauto.With(reg)

	return &LookupMetrics{
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total zip code lookups by outcome",
			},
			[]string{"outcome"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_duration_seconds",
				Help:      "Time spent waiting on the lookup service",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		RegionsRendered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "display_regions_rendered_total",
				Help:      "Display regions appended to pages",
			},
		),
	}
}

// ObserveLookup records one lookup. Rejected input is counted but has no duration.
func (m *LookupMetrics) ObserveLookup(failure domain.FailureKind, duration time.Duration) {
	outcome := outcomeLabel(failure)
	m.LookupsTotal.WithLabelValues(outcome).Inc()
	if failure != domain.FailureInvalidInput {
		m.LookupDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// RegionRendered counts one appended display region.
func (m *LookupMetrics) RegionRendered() {
	m.RegionsRendered.Inc()
}

func outcomeLabel(failure domain.FailureKind) string {
	if failure == domain.FailureNone {
		return "success"
	}
	return string(failure)
}
