package dpmeans

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector_Cluster(t *testing.T) {
	m := &BasicMetricsCollector{}
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.NInit = 3
	cfg.Metrics = m

	result, err := Cluster(threeBlobs(), cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(3), m.Restarts.Load())
	assert.Equal(t, int64(3), m.Converged.Load())
	assert.Zero(t, m.RestartErrors.Load())
	assert.Zero(t, m.Batches.Load())

	var iterations int64
	for _, s := range result.Restarts {
		iterations += int64(s.Iterations)
	}
	assert.Equal(t, iterations, m.Iterations.Load())
}

func TestBasicMetricsCollector_FitStream(t *testing.T) {
	m := &BasicMetricsCollector{}
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.NInit = 2
	cfg.BatchSize = 100
	cfg.MaxEpochs = 2
	cfg.MaxNoImprovement = 1000
	cfg.Metrics = m

	_, err := FitStream(threeBlobs(), cfg)
	require.NoError(t, err)

	// Two restarts, two epochs, three batches each.
	assert.Equal(t, int64(12), m.Batches.Load())
	assert.Equal(t, int64(1200), m.BatchPoints.Load())
	assert.Equal(t, int64(2), m.Restarts.Load())
	assert.Equal(t, int64(2), m.Exhausted.Load())
	assert.Zero(t, m.Stabilized.Load())
	assert.Zero(t, m.Iterations.Load())
}

func TestBasicMetricsCollector_EveryStatusCounted(t *testing.T) {
	m := &BasicMetricsCollector{}
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.NInit = 2
	cfg.MaxEpochs = 1
	cfg.Metrics = m

	_, err := FitStream(threeBlobs(), cfg)
	require.NoError(t, err)

	counted := m.Converged.Load() + m.MaxIterReached.Load() + m.Stabilized.Load() + m.Exhausted.Load()
	assert.Equal(t, m.Restarts.Load(), counted)
	assert.Equal(t, int64(2), m.Exhausted.Load())
}

func TestBasicMetricsCollector_MaxIter(t *testing.T) {
	m := &BasicMetricsCollector{}
	m.RecordRestart(StatusMaxIterReached, 0, nil)
	m.RecordRestart(StatusStabilized, 0, nil)
	m.RecordRestart(StatusExhausted, 0, nil)
	assert.Equal(t, int64(3), m.Restarts.Load())
	assert.Equal(t, int64(1), m.MaxIterReached.Load())
	assert.Equal(t, int64(1), m.Stabilized.Load())
	assert.Equal(t, int64(1), m.Exhausted.Load())
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestLogger_ClusterRecords(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.NInit = 2
	cfg.Logger = NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Cluster(threeBlobs(), cfg)
	require.NoError(t, err)

	var iterations, restarts, selections int
	for _, rec := range logLines(t, &buf) {
		assert.Equal(t, "batch", rec["mode"])
		switch rec["msg"] {
		case "iteration completed":
			iterations++
			assert.Contains(t, rec, "restart")
		case "restart completed":
			restarts++
			assert.Equal(t, string(StatusConverged), rec["status"])
		case "restart selected":
			selections++
		}
	}
	assert.Positive(t, iterations)
	assert.Equal(t, 2, restarts)
	assert.Equal(t, 1, selections)
}

func TestLogger_StreamRecords(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.Logger = NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mb, err := NewMiniBatch(cfg)
	require.NoError(t, err)
	_, err = mb.PartialFit(threeBlobs()[:9])
	require.NoError(t, err)

	recs := logLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "batch completed", recs[0]["msg"])
	assert.Equal(t, "stream", recs[0]["mode"])
	assert.Equal(t, 3.0, recs[0]["clusters"])
}

func TestLogger_FailedRestartsWarn(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Delta = 20
	cfg.NInit = 2
	cfg.Logger = NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.Source = func(restart int) Source {
		if restart == 0 {
			return brokenSource{}
		}
		return NewSource(0, uint64(restart))
	}

	_, err := Cluster(threeBlobs(), cfg)
	require.NoError(t, err)

	var levels []string
	for _, rec := range logLines(t, &buf) {
		levels = append(levels, rec["level"].(string))
	}
	assert.ElementsMatch(t, []string{"ERROR", "WARN"}, levels)
}

func TestNoopLogger_Discards(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
}
