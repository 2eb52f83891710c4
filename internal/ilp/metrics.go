package ilp

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solveTotal counts Solve calls by outcome.
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_ilp_solve_total",
		Help: "Total branch-and-bound solves by outcome",
	}, []string{"outcome"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_ilp_solve_duration_seconds",
		Help:    "Branch-and-bound solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
	})

	solveNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_ilp_solve_nodes",
		Help:    "Search nodes explored per optimal solve",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "optimal"
	case errors.Is(err, ErrInfeasible):
		return "infeasible"
	case errors.Is(err, ErrNoSolution):
		return "limit"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func observeSolve(start time.Time, a *Assignment, err error) {
	solveTotal.WithLabelValues(outcome(err)).Inc()
	solveDuration.Observe(time.Since(start).Seconds())
	if a != nil {
		solveNodes.Observe(float64(a.Nodes))
	}
}
