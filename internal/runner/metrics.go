package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sweepsTotal counts sweeps by source and final status.
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_sweeps_total",
		Help: "Total sweeps by source and status",
	}, []string{"source", "status"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_sweep_duration_seconds",
		Help:    "Sweep duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})

	sweepRowsRetained = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_sweep_rows_retained",
		Help:    "Rows kept after signature dedup per completed sweep",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
	})
)
