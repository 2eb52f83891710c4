package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Solver   SolverConfig   `yaml:"solver"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type SolverConfig struct {
	TimeLimitMs int     `yaml:"time_limit_ms"`
	MaxNodes    int     `yaml:"max_nodes"`
	Tolerance   float64 `yaml:"tolerance"`
	MaxLPRows   int     `yaml:"max_lp_rows"`
}

type SweepConfig struct {
	Workers            int `yaml:"workers"`
	BaselineIndex      int `yaml:"baseline_index"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) SolverTimeLimit() time.Duration {
	return time.Duration(c.Solver.TimeLimitMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Solver: SolverConfig{
			TimeLimitMs: 30000,
			MaxNodes:    500000,
			Tolerance:   1e-6,
			MaxLPRows:   300,
		},
		Sweep: SweepConfig{
			Workers:            1,
			BaselineIndex:      0,
			RateLimitPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnv(cfg *Config) {
	envInt("PORTFOLIO_PORT", &cfg.Server.Port)
	envInt("PORTFOLIO_METRICS_PORT", &cfg.Server.MetricsPort)
	if v := os.Getenv("PORTFOLIO_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("PORTFOLIO_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PORTFOLIO_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	envInt("PORTFOLIO_SOLVER_TIME_LIMIT_MS", &cfg.Solver.TimeLimitMs)
	envInt("PORTFOLIO_SOLVER_MAX_NODES", &cfg.Solver.MaxNodes)
	if v := os.Getenv("PORTFOLIO_SOLVER_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Solver.Tolerance = f
		}
	}
	envInt("PORTFOLIO_SOLVER_MAX_LP_ROWS", &cfg.Solver.MaxLPRows)
	envInt("PORTFOLIO_SWEEP_WORKERS", &cfg.Sweep.Workers)
	envInt("PORTFOLIO_RATE_LIMIT_PER_MINUTE", &cfg.Sweep.RateLimitPerMinute)
	if v := os.Getenv("PORTFOLIO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORTFOLIO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
