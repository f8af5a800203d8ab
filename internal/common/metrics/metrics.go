// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitizer_records_created_total",
			Help: "Total number of processing records created",
		},
		[]string{"source"},
	)

	ExtractionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitizer_extractions_finished_total",
			Help: "Total number of extractions that reached a terminal status",
		},
		[]string{"status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digitizer_extraction_duration_seconds",
			Help:    "Duration of extraction calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"status"},
	)

	ExtractionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digitizer_extractions_in_flight",
			Help: "Number of records currently in processing",
		},
	)

	SyncPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitizer_sync_pushes_total",
			Help: "Spreadsheet push attempts by outcome",
		},
		[]string{"outcome"},
	)

	DashboardPulls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitizer_dashboard_pulls_total",
			Help: "Remote table pulls by outcome",
		},
		[]string{"outcome"},
	)

	StorePersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digitizer_store_persist_failures_total",
			Help: "Record snapshots that could not be written to local storage",
		},
	)
)
