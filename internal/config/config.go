package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	defaultListenAddr        = ":5001"
	defaultDBPath            = "geode.db"
	defaultJobRetention      = 24 * time.Hour
	defaultRetentionInterval = 10 * time.Minute

	envListenAddr        = "GEODE_LISTEN_ADDR"
	envDBPath            = "GEODE_DB_PATH"
	envLogLevel          = "GEODE_LOG_LEVEL"
	envJobRetention      = "GEODE_JOB_RETENTION"
	envRetentionInterval = "GEODE_RETENTION_INTERVAL"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	LogLevel          slog.Level
	JobRetention      time.Duration
	RetentionInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// JobRetention accepts Go duration syntax; "0" disables pruning.
func Load() Config {
	cfg := Config{
		ListenAddr:        defaultListenAddr,
		DBPath:            defaultDBPath,
		LogLevel:          slog.LevelInfo,
		JobRetention:      defaultJobRetention,
		RetentionInterval: defaultRetentionInterval,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envJobRetention); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.JobRetention = d
		}
	}
	if v := os.Getenv(envRetentionInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RetentionInterval = d
		}
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
