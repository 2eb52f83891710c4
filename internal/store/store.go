package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SweepRun is one executed sweep and its retained output rows.
type SweepRun struct {
	ID     uuid.UUID `json:"run_id"`
	Status RunStatus `json:"status"`
	Source string    `json:"source"`

	// Request is the sweep request as received, kept for replay.
	Request json.RawMessage `json:"request,omitempty"`

	Thresholds []float64 `json:"thresholds"`
	Budgets    []float64 `json:"budgets"`
	Evaluated  int       `json:"evaluated"`
	Error      string    `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Rows []SweepRow `json:"rows,omitempty"`
}

// SweepRow is one retained (threshold, budget) outcome in sweep order.
type SweepRow struct {
	Position        int      `json:"position"`
	TotalCost       float64  `json:"total_cost"`
	Strategies      []string `json:"strategies"`
	Species         []string `json:"species"`
	Threshold       float64  `json:"threshold"`
	NumberOfSpecies int      `json:"number_of_species"`
	Budget          float64  `json:"budget"`
	Status          string   `json:"status"`
}

type RunFilter struct {
	Status *RunStatus
	Source string
	Limit  int
	Offset int
}

type RunStats struct {
	TotalRuns     int     `json:"total_runs"`
	TotalComplete int     `json:"total_completed"`
	TotalFailed   int     `json:"total_failed"`
	TotalRows     int     `json:"total_rows"`
	AvgEvaluated  float64 `json:"avg_evaluated"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

type Store interface {
	// CreateSweepRun persists run and its rows atomically. A nil ID is
	// replaced with a fresh one.
	CreateSweepRun(ctx context.Context, run *SweepRun) error
	// GetSweepRun returns the run with its rows, or nil when it does not exist.
	GetSweepRun(ctx context.Context, id uuid.UUID) (*SweepRun, error)
	// ListSweepRuns returns runs newest first, without rows.
	ListSweepRuns(ctx context.Context, filter RunFilter) ([]*SweepRun, error)
	GetStats(ctx context.Context) (*RunStats, error)
	Close() error
}
