package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"PORTFOLIO_PORT", "PORTFOLIO_METRICS_PORT", "PORTFOLIO_ADMIN_TOKEN",
	"PORTFOLIO_DATABASE_URL", "PORTFOLIO_HERMES_URL",
	"PORTFOLIO_SOLVER_TIME_LIMIT_MS", "PORTFOLIO_SOLVER_MAX_NODES", "PORTFOLIO_SOLVER_TOLERANCE",
	"PORTFOLIO_SOLVER_MAX_LP_ROWS", "PORTFOLIO_SWEEP_WORKERS", "PORTFOLIO_RATE_LIMIT_PER_MINUTE",
	"PORTFOLIO_LOG_LEVEL", "PORTFOLIO_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Solver.MaxNodes != 500000 {
		t.Errorf("expected max nodes 500000, got %d", cfg.Solver.MaxNodes)
	}
	if cfg.Solver.Tolerance != 1e-6 {
		t.Errorf("expected tolerance 1e-6, got %g", cfg.Solver.Tolerance)
	}
	if cfg.Solver.MaxLPRows != 300 {
		t.Errorf("expected max lp rows 300, got %d", cfg.Solver.MaxLPRows)
	}
	if cfg.Sweep.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Sweep.Workers)
	}
	if cfg.Sweep.RateLimitPerMinute != 60 {
		t.Errorf("expected rate limit 60, got %d", cfg.Sweep.RateLimitPerMinute)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.SolverTimeLimit() != 30*time.Second {
		t.Errorf("expected SolverTimeLimit 30s, got %v", cfg.SolverTimeLimit())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORTFOLIO_PORT", "9000")
	t.Setenv("PORTFOLIO_METRICS_PORT", "9001")
	t.Setenv("PORTFOLIO_ADMIN_TOKEN", "secret-token")
	t.Setenv("PORTFOLIO_DATABASE_URL", "postgres://localhost/portfolio_test")
	t.Setenv("PORTFOLIO_HERMES_URL", "nats://nats:4222")
	t.Setenv("PORTFOLIO_SOLVER_TIME_LIMIT_MS", "1500")
	t.Setenv("PORTFOLIO_SOLVER_TOLERANCE", "1e-8")
	t.Setenv("PORTFOLIO_SWEEP_WORKERS", "4")
	t.Setenv("PORTFOLIO_LOG_LEVEL", "debug")
	t.Setenv("PORTFOLIO_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/portfolio_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.SolverTimeLimit() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s time limit, got %v", cfg.SolverTimeLimit())
	}
	if cfg.Solver.Tolerance != 1e-8 {
		t.Errorf("expected tolerance 1e-8, got %g", cfg.Solver.Tolerance)
	}
	if cfg.Sweep.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Sweep.Workers)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("expected debug/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadFromFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	data := []byte("server:\n  port: 7000\nsolver:\n  max_nodes: 10\nsweep:\n  workers: 3\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORTFOLIO_SWEEP_WORKERS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Solver.MaxNodes != 10 {
		t.Errorf("expected max nodes from file, got %d", cfg.Solver.MaxNodes)
	}
	if cfg.Solver.MaxLPRows != 300 {
		t.Errorf("expected untouched default, got %d", cfg.Solver.MaxLPRows)
	}
	if cfg.Sweep.Workers != 8 {
		t.Errorf("expected env to override file, got %d", cfg.Sweep.Workers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
