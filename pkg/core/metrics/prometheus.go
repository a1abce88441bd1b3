// Package metrics records simulation activity for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeInsufficient = "insufficient"
	OutcomeDataSource   = "data_source"
	OutcomeCanceled     = "canceled"
)

type Recorder struct {
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	samples        prometheus.Counter
	lastPercentile *prometheus.GaugeVec
	loadDuration   *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wacc_simulations_total",
				Help: "Total number of simulation runs by sector and outcome",
			},
			[]string{"sector", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wacc_simulation_duration_seconds",
				Help:    "Duration of simulation runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sector"},
		),
		samples: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wacc_samples_drawn_total",
				Help: "Total number of Monte Carlo samples drawn",
			},
		),
		lastPercentile: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wacc_last_percentile_value",
				Help: "Real WACC at the requested percentile of the last successful run",
			},
			[]string{"sector"},
		),
		loadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wacc_source_load_duration_seconds",
				Help:    "Duration of input table loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// RecordRun records one finished run. samples is zero for failed runs.
func (r *Recorder) RecordRun(sector, outcome string, seconds float64, samples int) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(sector, outcome).Inc()
	r.runDuration.WithLabelValues(sector).Observe(seconds)
	if samples > 0 {
		r.samples.Add(float64(samples))
	}
}

// RecordPercentile stores the percentile value of the last successful run.
func (r *Recorder) RecordPercentile(sector string, value float64) {
	if r == nil {
		return
	}
	r.lastPercentile.WithLabelValues(sector).Set(value)
}

// RecordLoad records how long a source took to load.
func (r *Recorder) RecordLoad(source string, seconds float64) {
	if r == nil {
		return
	}
	r.loadDuration.WithLabelValues(source).Observe(seconds)
}
