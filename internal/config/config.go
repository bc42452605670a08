// Package config loads the bench tool's settings from an optional .env
// file and FASTBUF_* environment variables.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	afcerrors "github.com/dzidzitop/libafc/internal/errors"
)

// Prefix is the environment variable prefix.
const Prefix = "FASTBUF"

// Config validation errors
var (
	ErrInvalidPolicy          = errors.New("policy must be 'pow2', 'exact' or 'both'")
	ErrInvalidRecords         = errors.New("records must be positive")
	ErrInvalidWorkers         = errors.New("workers must be positive")
	ErrInvalidDuration        = errors.New("duration must be positive")
	ErrInvalidInitialCapacity = errors.New("initial_capacity cannot be negative")
	ErrInvalidAllocator       = errors.New("allocator must be go, arena, slab, tracking or limited")
	ErrInvalidArenaChunkSize  = errors.New("arena_chunk_size must be positive")
	ErrInvalidMemoryLimit     = errors.New("memory_limit must be positive with the limited allocator")
	ErrInvalidLogFormat       = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel        = errors.New("log_level must be debug, info, warn, or error")
)

// Config holds the bench tool settings.
type Config struct {
	Policy          string        `envconfig:"POLICY" default:"both"`
	Records         int           `envconfig:"RECORDS" default:"10000"`
	Workers         int           `envconfig:"WORKERS" default:"4"`
	Duration        time.Duration `envconfig:"DURATION" default:"30s"`
	InitialCapacity int           `envconfig:"INITIAL_CAPACITY" default:"0"`

	Allocator      string `envconfig:"ALLOCATOR" default:"go"`
	ArenaChunkSize int    `envconfig:"ARENA_CHUNK_SIZE" default:"1048576"` // 1MB
	MemoryLimit    int64  `envconfig:"MEMORY_LIMIT" default:"0"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	MetricsAddr string `envconfig:"METRICS_ADDR"` // empty disables the endpoint
	ReportPath  string `envconfig:"REPORT_PATH"`  // empty disables the parquet report
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Policy:         "both",
		Records:        10000,
		Workers:        4,
		Duration:       30 * time.Second,
		Allocator:      "go",
		ArenaChunkSize: 1 << 20,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables already set, then decodes the FASTBUF_* variables.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, afcerrors.WrapConfigurationError(err, "load", "reading env file").
				WithContext("path", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, afcerrors.WrapConfigurationError(err, "load", "decoding environment")
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, afcerrors.WrapConfigurationError(err, "validate", "invalid configuration")
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func Validate(cfg *Config) error {
	switch cfg.Policy {
	case "pow2", "exact", "both":
	default:
		return ErrInvalidPolicy
	}
	if cfg.Records <= 0 {
		return ErrInvalidRecords
	}
	if cfg.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if cfg.Duration <= 0 {
		return ErrInvalidDuration
	}
	if cfg.InitialCapacity < 0 {
		return ErrInvalidInitialCapacity
	}
	switch cfg.Allocator {
	case "go", "arena", "slab", "tracking":
	case "limited":
		if cfg.MemoryLimit <= 0 {
			return ErrInvalidMemoryLimit
		}
	default:
		return ErrInvalidAllocator
	}
	if cfg.ArenaChunkSize <= 0 {
		return ErrInvalidArenaChunkSize
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}

// Policies returns the growth policy names the run covers.
func (c *Config) Policies() []string {
	if c.Policy == "both" {
		return []string{"pow2", "exact"}
	}
	return []string{c.Policy}
}
