//go:build integration

package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE portfolio_sweep_rows, portfolio_sweep_runs CASCADE")
		s.Close()
	})

	return s
}

func TestCreateAndGetSweepRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	done := time.Now()
	run := &SweepRun{
		Status:      RunCompleted,
		Source:      "api",
		Request:     json.RawMessage(`{"thresholds":[0.7]}`),
		Thresholds:  []float64{0.7},
		Budgets:     []float64{0, 10},
		Evaluated:   2,
		CompletedAt: &done,
		Rows: []SweepRow{
			{Position: 0, TotalCost: 0, Strategies: []string{}, Species: []string{"quoll"}, Threshold: 0.7, NumberOfSpecies: 1, Budget: 0, Status: "baseline"},
			{Position: 1, TotalCost: 10, Strategies: []string{"Fencing"}, Species: []string{"bilby", "quoll"}, Threshold: 0.7, NumberOfSpecies: 2, Budget: 10, Status: "optimal"},
		},
	}

	if err := s.CreateSweepRun(ctx, run); err != nil {
		t.Fatalf("CreateSweepRun failed: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("expected run ID to be assigned")
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetSweepRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetSweepRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.Status != RunCompleted {
		t.Errorf("expected status completed, got %s", got.Status)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[1].Strategies[0] != "Fencing" || got.Rows[1].NumberOfSpecies != 2 {
		t.Errorf("unexpected second row: %+v", got.Rows[1])
	}
	if len(got.Budgets) != 2 || got.Budgets[1] != 10 {
		t.Errorf("expected budgets [0 10], got %v", got.Budgets)
	}
}

func TestGetSweepRunMissing(t *testing.T) {
	s := setupTestDB(t)
	got, err := s.GetSweepRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetSweepRun failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing run, got %+v", got)
	}
}

func TestListSweepRunsAndStats(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	runs := []*SweepRun{
		{Status: RunCompleted, Source: "api", Thresholds: []float64{0.5}, Budgets: []float64{0}, Evaluated: 1},
		{Status: RunFailed, Source: "hermes", Thresholds: []float64{0.5}, Error: "validation: budget"},
		{Status: RunCompleted, Source: "hermes", Thresholds: []float64{0.5}, Budgets: []float64{0}, Evaluated: 3},
	}
	for _, r := range runs {
		if err := s.CreateSweepRun(ctx, r); err != nil {
			t.Fatalf("CreateSweepRun failed: %v", err)
		}
	}

	got, err := s.ListSweepRuns(ctx, RunFilter{Source: "hermes"})
	if err != nil {
		t.Fatalf("ListSweepRuns failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 hermes runs, got %d", len(got))
	}

	failed := RunFailed
	got, err = s.ListSweepRuns(ctx, RunFilter{Status: &failed})
	if err != nil {
		t.Fatalf("ListSweepRuns failed: %v", err)
	}
	if len(got) != 1 || got[0].Error != "validation: budget" {
		t.Errorf("expected the failed run, got %+v", got)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalRuns != 3 || stats.TotalComplete != 2 || stats.TotalFailed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
