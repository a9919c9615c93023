// Package config reads the environment defaults of the command line tools.
// Flags override every value.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	OutputDir string // DCT_OUTPUT_DIR
	BenchDir  string // DCT_BENCH_DIR, CSV logs
	HistoryDB string // DCT_HISTORY_DB, sqlite benchmark history
	Workers   int    // DCT_WORKERS, 0 selects GOMAXPROCS
	LogLevel  string // DCT_LOG_LEVEL
	Transform string // DCT_TRANSFORM
}

func Load() *Config {
	benchDir := envOr("DCT_BENCH_DIR", "benchmark")
	return &Config{
		OutputDir: envOr("DCT_OUTPUT_DIR", "output"),
		BenchDir:  benchDir,
		HistoryDB: envOr("DCT_HISTORY_DB", filepath.Join(benchDir, "history.db")),
		Workers:   envIntOr("DCT_WORKERS", 0),
		LogLevel:  envOr("DCT_LOG_LEVEL", "INFO"),
		Transform: envOr("DCT_TRANSFORM", "fast"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
