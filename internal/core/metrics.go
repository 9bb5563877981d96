package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	Runs          *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	SourceBytes   *prometheus.GaugeVec
	RowsParsed    *prometheus.CounterVec
	RowsDropped   *prometheus.CounterVec
	JoinMissing   prometheus.Counter
	Countries     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tariffdash_pipeline_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tariffdash_source_fetch_duration_seconds",
				Help:    "Time to fetch a dataset's raw text",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),
		SourceBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tariffdash_source_bytes",
				Help: "Size of the last fetched raw text per dataset",
			},
			[]string{"dataset"},
		),
		RowsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tariffdash_rows_parsed_total",
				Help: "Rows emitted by the parser",
			},
			[]string{"dataset"},
		),
		RowsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tariffdash_rows_dropped_total",
				Help: "Lines dropped because their field count disagreed with the header",
			},
			[]string{"dataset"},
		),
		JoinMissing: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tariffdash_join_missing_population_total",
				Help: "Tariff rows with no matching population row",
			},
		),
		Countries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tariffdash_trend_countries",
				Help: "Countries in the published trend series",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Runs,
			m.FetchDuration,
			m.SourceBytes,
			m.RowsParsed,
			m.RowsDropped,
			m.JoinMissing,
			m.Countries,
		)
	}
	return m
}
