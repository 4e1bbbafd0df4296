package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, read from an optional YAML file and
// overridden by environment variables.
type Config struct {
	ListenAddr      string    `yaml:"listen_addr"`
	DatabaseURL     string    `yaml:"database_url"`
	GeneratorURL    string    `yaml:"generator_url,omitempty"`
	HistoryCapacity int       `yaml:"history_capacity,omitempty"`
	Log             LogConfig `yaml:"log"`
}

// LogConfig selects the log level (debug, info, warn, error) and format
// (text or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":3000",
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// loadConfig reads path if it is not empty, then applies DATABASE_URL,
// LISTEN_ADDR and GENERATOR_URL from the environment.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GENERATOR_URL"); v != "" {
		cfg.GeneratorURL = v
	}
	return cfg, nil
}

// newLogger creates a logger for the configured level and format without
// touching the global logger.
func newLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
