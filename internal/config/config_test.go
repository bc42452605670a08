package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	afcerrors "github.com/dzidzitop/libafc/internal/errors"
)

var envKeys = []string{
	"POLICY", "RECORDS", "WORKERS", "DURATION", "INITIAL_CAPACITY",
	"ALLOCATOR", "ARENA_CHUNK_SIZE", "MEMORY_LIMIT",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "REPORT_PATH",
}

// clearEnv unsets every FASTBUF_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		key := Prefix + "_" + k
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, []string{"pow2", "exact"}, cfg.Policies())
}

func TestLoad_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTBUF_POLICY", "exact")
	t.Setenv("FASTBUF_RECORDS", "500")
	t.Setenv("FASTBUF_WORKERS", "2")
	t.Setenv("FASTBUF_DURATION", "5s")
	t.Setenv("FASTBUF_ALLOCATOR", "limited")
	t.Setenv("FASTBUF_MEMORY_LIMIT", "1048576")
	t.Setenv("FASTBUF_METRICS_ADDR", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "exact", cfg.Policy)
	assert.Equal(t, 500, cfg.Records)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Duration)
	assert.Equal(t, "limited", cfg.Allocator)
	assert.Equal(t, int64(1048576), cfg.MemoryLimit)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, []string{"exact"}, cfg.Policies())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FASTBUF_WORKERS=7\nFASTBUF_POLICY=pow2\n"), 0o600))
	// The process environment wins over the file.
	t.Setenv("FASTBUF_POLICY", "exact")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "exact", cfg.Policy)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTBUF_WORKERS", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	var se *afcerrors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, afcerrors.ErrorTypeConfiguration, se.Type)
}

func TestLoad_Malformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASTBUF_RECORDS", "many")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"policy", func(c *Config) { c.Policy = "linear" }, ErrInvalidPolicy},
		{"records", func(c *Config) { c.Records = 0 }, ErrInvalidRecords},
		{"workers", func(c *Config) { c.Workers = -1 }, ErrInvalidWorkers},
		{"duration", func(c *Config) { c.Duration = 0 }, ErrInvalidDuration},
		{"initial capacity", func(c *Config) { c.InitialCapacity = -1 }, ErrInvalidInitialCapacity},
		{"allocator", func(c *Config) { c.Allocator = "jemalloc" }, ErrInvalidAllocator},
		{"limited without limit", func(c *Config) { c.Allocator = "limited" }, ErrInvalidMemoryLimit},
		{"limited with limit", func(c *Config) { c.Allocator = "limited"; c.MemoryLimit = 1 << 20 }, nil},
		{"arena chunk", func(c *Config) { c.ArenaChunkSize = 0 }, ErrInvalidArenaChunkSize},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, Validate(&cfg))
		})
	}
}
