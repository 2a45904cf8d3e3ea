// Package config loads seedbloom settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// Config holds all configuration values.
type Config struct {
	// Memory tuning
	Memory resonance.Config `yaml:"memory"`

	// Snapshot file used by the CLI and server
	SnapshotPath string `yaml:"snapshot"`

	// Server settings for `seedbloom serve`
	Server ServerConfig `yaml:"server"`

	// Logging
	LogFile      string     `yaml:"log_file"`
	LogLevelName string     `yaml:"log_level"`
	LogLevel     slog.Level `yaml:"-"`
}

// ServerConfig holds settings for the WebSocket server.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// TickInterval decays weights periodically. 0 disables.
	TickInterval time.Duration `yaml:"tick_interval"`

	// SaveInterval writes the snapshot periodically. 0 disables.
	SaveInterval time.Duration `yaml:"save_interval"`
}

// Load reads configuration from environment variables.
// Unset or unparsable values fall back to resonance.DefaultConfig.
func Load() Config {
	def := resonance.DefaultConfig()

	cfg := Config{
		Memory: resonance.Config{
			Dimensions:      getEnvInt("SEEDBLOOM_DIMENSIONS", def.Dimensions),
			Capacity:        getEnvInt("SEEDBLOOM_CAPACITY", def.Capacity),
			DecayRate:       getEnvFloat("SEEDBLOOM_DECAY_RATE", def.DecayRate),
			MaxBloomDepth:   getEnvInt("SEEDBLOOM_MAX_BLOOM_DEPTH", def.MaxBloomDepth),
			MinSimilarity:   getEnvFloat("SEEDBLOOM_MIN_SIMILARITY", def.MinSimilarity),
			DirectionWeight: getEnvFloat("SEEDBLOOM_DIRECTION_WEIGHT", def.DirectionWeight),
			ReinforceDelta:  getEnvFloat("SEEDBLOOM_REINFORCE_DELTA", def.ReinforceDelta),
			MaxWeight:       getEnvFloat("SEEDBLOOM_MAX_WEIGHT", def.MaxWeight),
			InitialWeight:   getEnvFloat("SEEDBLOOM_INITIAL_WEIGHT", def.InitialWeight),
			WeightFloor:     getEnvFloat("SEEDBLOOM_WEIGHT_FLOOR", def.WeightFloor),
			EncodeCacheSize: int64(getEnvInt("SEEDBLOOM_ENCODE_CACHE", int(def.EncodeCacheSize))),

			MaxCompressionRatio: getEnvFloat("SEEDBLOOM_MAX_COMPRESSION_RATIO", def.MaxCompressionRatio),
		},

		SnapshotPath: getEnv("SEEDBLOOM_SNAPSHOT", defaultSnapshotPath()),

		Server: ServerConfig{
			Addr:         getEnv("SEEDBLOOM_ADDR", "localhost:8585"),
			TickInterval: getEnvDuration("SEEDBLOOM_TICK_INTERVAL", 0),
			SaveInterval: getEnvDuration("SEEDBLOOM_SAVE_INTERVAL", time.Minute),
		},

		LogFile:      getEnv("SEEDBLOOM_LOG_FILE", ""),
		LogLevelName: getEnv("SEEDBLOOM_LOG_LEVEL", "INFO"),
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg
}

// LoadFile reads the environment, then overlays the YAML file at path.
// Keys absent from the file keep their environment or default value.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)

	if err := cfg.Memory.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "seedbloom.jsonl"
	}
	return filepath.Join(home, ".seedbloom", "seeds.jsonl")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
