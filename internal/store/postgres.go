package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS portfolio_sweep_runs (
	run_id       UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	request      JSONB,
	thresholds   DOUBLE PRECISION[] NOT NULL,
	budgets      DOUBLE PRECISION[] NOT NULL,
	evaluated    INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS portfolio_sweep_rows (
	run_id            UUID NOT NULL REFERENCES portfolio_sweep_runs(run_id) ON DELETE CASCADE,
	position          INTEGER NOT NULL,
	total_cost        DOUBLE PRECISION NOT NULL,
	strategies        TEXT[] NOT NULL,
	species           TEXT[] NOT NULL,
	threshold         DOUBLE PRECISION NOT NULL,
	number_of_species INTEGER NOT NULL,
	budget            DOUBLE PRECISION NOT NULL,
	status            TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS portfolio_sweep_runs_created_idx ON portfolio_sweep_runs (created_at DESC);
`

// EnsureSchema creates the tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const runColumns = `run_id, status, source, request, thresholds, budgets,
	evaluated, error, created_at, completed_at`

var rowColumns = []string{
	"run_id", "position", "total_cost", "strategies", "species",
	"threshold", "number_of_species", "budget", "status",
}

func (s *PostgresStore) CreateSweepRun(ctx context.Context, run *SweepRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var request []byte
	if len(run.Request) > 0 {
		request = run.Request
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO portfolio_sweep_runs (run_id, status, source, request, thresholds, budgets,
			evaluated, error, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING created_at`,
		run.ID, run.Status, run.Source, request, nonNil(run.Thresholds), nonNil(run.Budgets),
		run.Evaluated, run.Error, run.CompletedAt,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sweep run: %w", err)
	}

	if len(run.Rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"portfolio_sweep_rows"}, rowColumns,
			pgx.CopyFromSlice(len(run.Rows), func(i int) ([]any, error) {
				r := run.Rows[i]
				return []any{
					run.ID, r.Position, r.TotalCost, nonNil(r.Strategies), nonNil(r.Species),
					r.Threshold, r.NumberOfSpecies, r.Budget, r.Status,
				}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy sweep rows: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetSweepRun(ctx context.Context, id uuid.UUID) (*SweepRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM portfolio_sweep_runs WHERE run_id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT position, total_cost, strategies, species, threshold, number_of_species, budget, status
		FROM portfolio_sweep_rows WHERE run_id = $1
		ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r SweepRow
		if err := rows.Scan(&r.Position, &r.TotalCost, &r.Strategies, &r.Species,
			&r.Threshold, &r.NumberOfSpecies, &r.Budget, &r.Status); err != nil {
			return nil, err
		}
		run.Rows = append(run.Rows, r)
	}
	return run, rows.Err()
}

func (s *PostgresStore) ListSweepRuns(ctx context.Context, filter RunFilter) ([]*SweepRun, error) {
	query := `SELECT ` + runColumns + ` FROM portfolio_sweep_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Source != "" {
		n++
		query += fmt.Sprintf(" AND source = $%d", n)
		args = append(args, filter.Source)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*SweepRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			(SELECT COUNT(*) FROM portfolio_sweep_rows),
			COALESCE(AVG(evaluated), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) * 1000) FILTER (WHERE completed_at IS NOT NULL), 0)
		FROM portfolio_sweep_runs`,
	).Scan(&stats.TotalRuns, &stats.TotalComplete, &stats.TotalFailed, &stats.TotalRows, &stats.AvgEvaluated, &stats.AvgDurationMs)
	return stats, err
}

func scanRun(row pgx.Row) (*SweepRun, error) {
	run := &SweepRun{}
	var request []byte
	var runError sql.NullString
	if err := row.Scan(
		&run.ID, &run.Status, &run.Source, &request, &run.Thresholds, &run.Budgets,
		&run.Evaluated, &runError, &run.CreatedAt, &run.CompletedAt,
	); err != nil {
		return nil, err
	}
	if runError.Valid {
		run.Error = runError.String
	}
	if request != nil {
		run.Request = request
	}
	return run, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
