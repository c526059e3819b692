package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RowsTotal counts raw input rows seen.
	RowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authtower_rows_total",
			Help: "Total raw input rows received",
		},
	)

	// RowsSkippedTotal counts rows excluded at normalization, by reason.
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authtower_rows_skipped_total",
			Help: "Rows excluded at normalization",
		},
		[]string{"reason"}, // bad_timestamp, bad_outcome
	)

	// RunsTotal counts completed analysis runs.
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authtower_analysis_runs_total",
			Help: "Total completed analysis runs",
		},
	)

	// AlertsTotal counts emitted alerts.
	AlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authtower_alerts_total",
			Help: "Total alerts emitted across runs",
		},
	)
)

// ObserveBatch records the counters for one completed run.
func ObserveBatch(rows, badTimestamp, badOutcome, alerts int) {
	RowsTotal.Add(float64(rows))
	RowsSkippedTotal.WithLabelValues("bad_timestamp").Add(float64(badTimestamp))
	RowsSkippedTotal.WithLabelValues("bad_outcome").Add(float64(badOutcome))
	RunsTotal.Inc()
	AlertsTotal.Add(float64(alerts))
}

// Serve exposes /metrics on addr. Blocks; intended for a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
