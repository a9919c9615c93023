package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("run", "abc"))
	ctx = AppendCtx(ctx, slog.Int("F", 8))
	log.InfoContext(ctx, "compressing", "plane", 0)
	log.DebugContext(ctx, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "compressing", rec["msg"])
	assert.Equal(t, "abc", rec["run"])
	assert.Equal(t, float64(8), rec["F"])
	assert.Equal(t, float64(0), rec["plane"])
}

func TestAppendCtx_DoesNotShareParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	left := AppendCtx(parent, slog.String("b", "2"))
	right := AppendCtx(parent, slog.String("c", "3"))

	assert.Len(t, parent.Value(ctxKey{}), 1)
	assert.Equal(t, "b", left.Value(ctxKey{}).([]slog.Attr)[1].Key)
	assert.Equal(t, "c", right.Value(ctxKey{}).([]slog.Attr)[1].Key)
}

func TestLogger_TextWithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelDebug).WithGroup("bench").With("size", 16)
	log.DebugContext(AppendCtx(context.Background(), slog.String("cmd", "bench")), "timed")
	assert.Contains(t, buf.String(), "bench.size=16")
	assert.Contains(t, buf.String(), "bench.cmd=bench")
}

func TestRotatingWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dctctl.log")
	w := RotatingWriter(path)
	Logger(w, false, slog.LevelInfo).Info("hello")
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "msg=hello")
}
