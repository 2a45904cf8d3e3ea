package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, resonance.DefaultConfig(), cfg.Memory)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NotEmpty(t, cfg.SnapshotPath)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SEEDBLOOM_DIMENSIONS", "16")
	t.Setenv("SEEDBLOOM_CAPACITY", "50")
	t.Setenv("SEEDBLOOM_DECAY_RATE", "0.2")
	t.Setenv("SEEDBLOOM_DIRECTION_WEIGHT", "0.6")
	t.Setenv("SEEDBLOOM_SNAPSHOT", "/tmp/x.jsonl")
	t.Setenv("SEEDBLOOM_LOG_LEVEL", "debug")
	t.Setenv("SEEDBLOOM_ENCODE_CACHE", "not-a-number")
	t.Setenv("SEEDBLOOM_ADDR", ":9000")
	t.Setenv("SEEDBLOOM_TICK_INTERVAL", "30s")
	t.Setenv("SEEDBLOOM_MAX_COMPRESSION_RATIO", "0.05")

	cfg := Load()
	assert.Equal(t, 16, cfg.Memory.Dimensions)
	assert.Equal(t, 50, cfg.Memory.Capacity)
	assert.Equal(t, 0.2, cfg.Memory.DecayRate)
	assert.Equal(t, 0.6, cfg.Memory.DirectionWeight)
	assert.Equal(t, "/tmp/x.jsonl", cfg.SnapshotPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, resonance.DefaultConfig().EncodeCacheSize, cfg.Memory.EncodeCacheSize)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.TickInterval)
	assert.Equal(t, time.Minute, cfg.Server.SaveInterval)
	assert.Equal(t, 0.05, cfg.Memory.MaxCompressionRatio)
}

func TestLoadFile_Overlay(t *testing.T) {
	t.Setenv("SEEDBLOOM_CAPACITY", "50")
	path := filepath.Join(t.TempDir(), "seedbloom.yaml")
	content := `
memory:
  dimensions: 4
  decay_rate: 0.05
  min_similarity: 0.4
  max_compression_ratio: 0.02
snapshot: ./seeds.jsonl
server:
  addr: 0.0.0.0:8600
  tick_interval: 5m
log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Memory.Dimensions)
	assert.Equal(t, 0.05, cfg.Memory.DecayRate)
	assert.Equal(t, 0.4, cfg.Memory.MinSimilarity)
	assert.Equal(t, 0.02, cfg.Memory.MaxCompressionRatio)
	assert.Equal(t, 50, cfg.Memory.Capacity, "env value kept when file omits key")
	assert.Equal(t, "./seeds.jsonl", cfg.SnapshotPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8600", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.TickInterval)
	assert.Equal(t, time.Minute, cfg.Server.SaveInterval, "env default kept")
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("memory: [oops"), 0644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("memory:\n  dimensions: 2\n"), 0644))
	_, err = LoadFile(invalid)
	assert.ErrorIs(t, err, resonance.ErrInvalidArgument)

	ratio := filepath.Join(dir, "ratio.yaml")
	require.NoError(t, os.WriteFile(ratio, []byte("memory:\n  max_compression_ratio: 2\n"), 0644))
	_, err = LoadFile(ratio)
	assert.ErrorIs(t, err, resonance.ErrInvalidArgument)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("seed stored", "id", "abc")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "seed stored")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &rec))
	assert.Equal(t, "seed stored", rec["msg"])
	assert.Equal(t, "abc", rec["id"])
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedbloom.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	logger, cleanup = SetupLogger("", slog.LevelInfo)
	assert.NotNil(t, logger)
	assert.NoError(t, cleanup())
}
