package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DCT_OUTPUT_DIR", "DCT_BENCH_DIR", "DCT_HISTORY_DB", "DCT_WORKERS", "DCT_LOG_LEVEL", "DCT_TRANSFORM"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "benchmark", cfg.BenchDir)
	assert.Equal(t, filepath.Join("benchmark", "history.db"), cfg.HistoryDB)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "fast", cfg.Transform)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DCT_OUTPUT_DIR", "/tmp/out")
	t.Setenv("DCT_BENCH_DIR", "/tmp/bench")
	t.Setenv("DCT_HISTORY_DB", "")
	t.Setenv("DCT_WORKERS", "4")
	t.Setenv("DCT_LOG_LEVEL", "debug")
	t.Setenv("DCT_TRANSFORM", "matrix")

	cfg := Load()
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "/tmp/bench", cfg.BenchDir)
	assert.Equal(t, filepath.Join("/tmp/bench", "history.db"), cfg.HistoryDB, "history follows the bench dir")
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "matrix", cfg.Transform)
}

func TestLoad_BadWorkers(t *testing.T) {
	t.Setenv("DCT_WORKERS", "many")
	assert.Equal(t, 0, Load().Workers)
}
