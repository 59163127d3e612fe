// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named by
// TURF_CONFIG, then TURF_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the in-memory replay guard.
	DedupeSize int `koanf:"dedupe_size"`

	// RedisAddr switches the replay guard to Redis when set.
	RedisAddr string `koanf:"redis_addr"`

	// DedupeTTL is how long Redis remembers an event hash.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`

	// LedgerPath is the prediction ledger file.
	LedgerPath string `koanf:"ledger_path"`

	// PredictionAgent logs the model's values in the ledger under this id.
	PredictionAgent string `koanf:"prediction_agent"`

	// BlobDir stores canonical events on local disk when set.
	BlobDir string `koanf:"blob_dir"`

	// S3 settings take precedence over BlobDir when S3Bucket is set.
	S3Bucket   string `koanf:"s3_bucket"`
	S3Region   string `koanf:"s3_region"`
	S3Endpoint string `koanf:"s3_endpoint"`
	S3Prefix   string `koanf:"s3_prefix"`

	// FlatJockeyFee is the riding fee for non-winning placings.
	FlatJockeyFee string `koanf:"flat_jockey_fee"`

	// XFactorMaxDepth bounds pedigree traversal.
	XFactorMaxDepth int `koanf:"xfactor_max_depth"`

	// ValuationLatencyMinMS and ValuationLatencyMaxMS simulate a remote model.
	ValuationLatencyMinMS int `koanf:"valuation_latency_min_ms"`
	ValuationLatencyMaxMS int `koanf:"valuation_latency_max_ms"`

	// MaxTopLimit caps GET /v1/horses/top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		EventQueueSize:  10_000,
		WorkerCount:     runtime.NumCPU() * 2,
		DedupeSize:      50_000,
		DedupeTTL:       30 * 24 * time.Hour,
		LedgerPath:      "data/predictions.jsonl",
		FlatJockeyFee:   "500",
		XFactorMaxDepth: 8,
		MaxTopLimit:     100,
	}
}

// Validate checks the configuration; every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.XFactorMaxDepth < 1:
		return fmt.Errorf("%w: xfactor_max_depth must be positive", ErrInvalidConfig)
	case c.MaxTopLimit < 1:
		return fmt.Errorf("%w: max_top_limit must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.LedgerPath) == "":
		return fmt.Errorf("%w: ledger_path must not be empty", ErrInvalidConfig)
	case c.ValuationLatencyMinMS < 0 || c.ValuationLatencyMaxMS < c.ValuationLatencyMinMS:
		return fmt.Errorf("%w: valuation latency range is invalid", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}

	if _, err := c.JockeyFee(); err != nil {
		return err
	}
	return nil
}

// JockeyFee parses FlatJockeyFee.
func (c *Config) JockeyFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.FlatJockeyFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: flat_jockey_fee: %v", ErrInvalidConfig, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: flat_jockey_fee must not be negative", ErrInvalidConfig)
	}
	return fee, nil
}
