package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
	"github.com/MikeSquared-Agency/Portfolio/internal/config"
	"github.com/MikeSquared-Agency/Portfolio/internal/hermes"
	"github.com/MikeSquared-Agency/Portfolio/internal/optimize"
	"github.com/MikeSquared-Agency/Portfolio/internal/store"
)

const (
	SourceAPI    = "api"
	SourceHermes = "hermes"
)

// Runner executes sweeps on behalf of the API and NATS, persisting each run
// and announcing its outcome.
type Runner struct {
	store  store.Store
	hermes hermes.Client
	opt    *optimize.Optimizer
	cfg    *config.Config
	logger *slog.Logger
}

func New(s store.Store, h hermes.Client, opt *optimize.Optimizer, cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		store:  s,
		hermes: h,
		opt:    opt,
		cfg:    cfg,
		logger: logger,
	}
}

// Run validates req, sweeps it and stores the run. A failed sweep is still
// stored (status failed) and returned alongside the error; a request that
// fails validation is rejected before a run exists.
func (r *Runner) Run(ctx context.Context, req *Request, source, requestID string) (*store.SweepRun, error) {
	runID := uuid.New()
	start := time.Now()

	if err := Validate(req); err != nil {
		sweepsTotal.WithLabelValues(source, "rejected").Inc()
		r.publishFailed(runID, requestID, err)
		return nil, err
	}

	// NaN and infinite numbers pass the tag validation but cannot be stored.
	raw, err := json.Marshal(req)
	if err != nil {
		verr := &benefit.ValidationError{Field: "request", Reason: fmt.Sprintf("not representable as JSON: %v", err)}
		sweepsTotal.WithLabelValues(source, "rejected").Inc()
		r.publishFailed(runID, requestID, verr)
		return nil, verr
	}
	run := &store.SweepRun{
		ID:         runID,
		Source:     source,
		Request:    raw,
		Thresholds: req.Thresholds,
	}

	res, err := r.sweep(ctx, req)
	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = store.RunFailed
		run.Error = err.Error()
		r.logger.Warn("sweep failed", "run_id", runID, "source", source, "error", err)
	} else {
		run.Status = store.RunCompleted
		run.Budgets = res.Budgets
		run.Evaluated = res.Evaluated
		run.Rows = RowsFromResults(res.Results)
	}

	sweepsTotal.WithLabelValues(source, string(run.Status)).Inc()
	sweepDuration.Observe(now.Sub(start).Seconds())

	if run.Status == store.RunFailed {
		if storeErr := r.store.CreateSweepRun(ctx, run); storeErr != nil {
			r.logger.Error("failed to store sweep run", "run_id", runID, "error", storeErr)
		}
		r.publishFailed(runID, requestID, err)
		return run, err
	}
	if err := r.store.CreateSweepRun(ctx, run); err != nil {
		r.logger.Error("failed to store sweep run", "run_id", runID, "error", err)
		return run, fmt.Errorf("store sweep run: %w", err)
	}

	sweepRowsRetained.Observe(float64(len(run.Rows)))
	r.logger.Info("sweep completed",
		"run_id", runID,
		"source", source,
		"evaluated", run.Evaluated,
		"retained", len(run.Rows),
		"duration", now.Sub(start),
	)
	if r.hermes != nil {
		_ = r.hermes.Publish(hermes.SubjectSweepCompleted(runID.String()), hermes.SweepCompletedEvent{
			RunID:      runID.String(),
			RequestID:  requestID,
			Thresholds: run.Thresholds,
			Budgets:    run.Budgets,
			Evaluated:  run.Evaluated,
			Retained:   len(run.Rows),
			DurationMs: now.Sub(start).Milliseconds(),
		})
	}
	return run, nil
}

func (r *Runner) sweep(ctx context.Context, req *Request) (*optimize.SweepResult, error) {
	m, costs, err := req.build()
	if err != nil {
		return nil, err
	}
	opts := req.options(r.cfg.Sweep.BaselineIndex)
	workers := req.Workers
	if workers == 0 {
		workers = r.cfg.Sweep.Workers
	}
	return r.opt.Sweep(ctx, optimize.SweepRequest{
		Matrix:        m,
		Costs:         costs,
		BaselineIndex: opts.BaselineIndex,
		AllIndex:      opts.AllIndex,
		Thresholds:    req.Thresholds,
		Budgets:       req.Budgets,
		Combos:        opts.Combos,
		Weights:       opts.Weights,
		Workers:       workers,
	})
}

// Preview validates and sweeps req without storing or announcing it.
func (r *Runner) Preview(ctx context.Context, req *Request) (*optimize.SweepResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return r.sweep(ctx, req)
}

// Solve runs one (threshold, budget) point without storing anything.
func (r *Runner) Solve(ctx context.Context, req *SolveRequest) (*optimize.Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	m, costs, err := req.build()
	if err != nil {
		return nil, err
	}
	inst, err := optimize.NewInstance(m, costs, req.options(r.cfg.Sweep.BaselineIndex), req.Threshold)
	if err != nil {
		return nil, err
	}
	return r.opt.Solve(ctx, inst, req.Budget)
}

// Budgets previews the ladder MakeBudget would generate.
func (r *Runner) Budgets(req *BudgetRequest) ([]float64, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return optimize.MakeBudget(req.Costs), nil
}

// SetupSubscriptions consumes sweep requests from NATS.
func (r *Runner) SetupSubscriptions(ctx context.Context) error {
	if r.hermes == nil {
		return nil
	}
	return r.hermes.Subscribe(hermes.SubjectSweepRequest, func(_ string, data []byte) {
		var evt hermes.SweepRequestEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			r.logger.Warn("invalid sweep request event", "error", err)
			return
		}
		var req Request
		if err := json.Unmarshal(evt.Sweep, &req); err != nil {
			r.logger.Warn("invalid sweep request body", "request_id", evt.RequestID, "error", err)
			r.publishFailed(uuid.New(), evt.RequestID, err)
			return
		}
		source := evt.Source
		if source == "" {
			source = SourceHermes
		}
		if _, err := r.Run(ctx, &req, source, evt.RequestID); err != nil {
			r.logger.Warn("sweep request from NATS failed", "request_id", evt.RequestID, "error", err)
		}
	})
}

func (r *Runner) publishFailed(runID uuid.UUID, requestID string, err error) {
	if r.hermes == nil {
		return
	}
	_ = r.hermes.Publish(hermes.SubjectSweepFailed(runID.String()), hermes.SweepFailedEvent{
		RunID:     runID.String(),
		RequestID: requestID,
		Error:     err.Error(),
	})
}

// RowsFromResults numbers retained results in sweep order for storage.
func RowsFromResults(results []*optimize.Result) []store.SweepRow {
	rows := make([]store.SweepRow, len(results))
	for i, res := range results {
		rows[i] = store.SweepRow{
			Position:        i,
			TotalCost:       res.TotalCost,
			Strategies:      res.Strategies,
			Species:         res.SpeciesNames,
			Threshold:       res.Threshold,
			NumberOfSpecies: res.SpeciesCount,
			Budget:          res.Budget,
			Status:          string(res.Status),
		}
	}
	return rows
}

// ResultsFromRun rebuilds results from stored rows.
func ResultsFromRun(run *store.SweepRun) []*optimize.Result {
	out := make([]*optimize.Result, len(run.Rows))
	for i, row := range run.Rows {
		out[i] = &optimize.Result{
			SpeciesCount: row.NumberOfSpecies,
			TotalCost:    row.TotalCost,
			Threshold:    row.Threshold,
			SpeciesNames: row.Species,
			Strategies:   row.Strategies,
			Budget:       row.Budget,
			Status:       optimize.Status(row.Status),
		}
	}
	return out
}
