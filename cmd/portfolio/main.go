package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Portfolio/internal/api"
	"github.com/MikeSquared-Agency/Portfolio/internal/config"
	"github.com/MikeSquared-Agency/Portfolio/internal/hermes"
	"github.com/MikeSquared-Agency/Portfolio/internal/ilp"
	"github.com/MikeSquared-Agency/Portfolio/internal/optimize"
	"github.com/MikeSquared-Agency/Portfolio/internal/runner"
	"github.com/MikeSquared-Agency/Portfolio/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	sweepPath := flag.String("sweep", "", "run the sweep request in this JSON file, write CSV to stdout and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solver := ilp.NewBranchAndBound(ilp.Options{
		TimeLimit: cfg.SolverTimeLimit(),
		MaxNodes:  cfg.Solver.MaxNodes,
		Tolerance: cfg.Solver.Tolerance,
		MaxLPRows: cfg.Solver.MaxLPRows,
	})
	opt := optimize.New(solver, logger)

	if *sweepPath != "" {
		if err := sweepFile(ctx, runner.New(nil, nil, opt, cfg, logger), *sweepPath); err != nil {
			logger.Error("sweep failed", "file", *sweepPath, "error", err)
			os.Exit(1)
		}
		return
	}

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	run := runner.New(db, hermesClient, opt, cfg, logger)
	if err := run.SetupSubscriptions(ctx); err != nil {
		logger.Warn("failed to subscribe to sweep requests", "error", err)
	}

	// API server
	router := api.NewRouter(run, db, api.RouterConfig{
		AdminToken:         cfg.Server.AdminToken,
		RateLimitPerMinute: cfg.Sweep.RateLimitPerMinute,
	}, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func sweepFile(ctx context.Context, r *runner.Runner, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var req runner.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	res, err := r.Preview(ctx, &req)
	if err != nil {
		return err
	}
	return optimize.WriteCSV(os.Stdout, optimize.Rows(res.Results))
}
