package dpmeans

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with dpmeans-specific fields and helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at Info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithRestart tags every record with the restart index.
func (l *Logger) WithRestart(restart int) *Logger {
	return &Logger{Logger: l.Logger.With("restart", restart)}
}

// WithMode tags every record with the engine mode ("batch" or "stream").
func (l *Logger) WithMode(mode string) *Logger {
	return &Logger{Logger: l.Logger.With("mode", mode)}
}

// LogIteration logs one batch-engine iteration.
func (l *Logger) LogIteration(ctx context.Context, iter, clusters, changed, spawned, removed int) {
	l.DebugContext(ctx, "iteration completed",
		"iteration", iter,
		"clusters", clusters,
		"changed", changed,
		"spawned", spawned,
		"removed", removed,
	)
}

// LogBatch logs one streaming update.
func (l *Logger) LogBatch(ctx context.Context, r BatchReport) {
	l.DebugContext(ctx, "batch completed",
		"batch", r.Batch,
		"size", r.Size,
		"clusters", r.Clusters,
		"spawned", r.Spawned,
		"decayed", r.Decayed,
		"mean_inertia", r.MeanInertia,
		"no_improvement", r.NoImprovement,
	)
}

// LogDecay logs clusters removed by the decay policy.
func (l *Logger) LogDecay(ctx context.Context, batch, removed, clusters int) {
	l.DebugContext(ctx, "clusters decayed",
		"batch", batch,
		"removed", removed,
		"clusters", clusters,
	)
}

// LogRestart logs the outcome of one restart.
func (l *Logger) LogRestart(ctx context.Context, status Status, clusters, iterations int, objective float64, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "restart failed", "error", err)
	case status == StatusMaxIterReached:
		l.WarnContext(ctx, "restart hit iteration cap",
			"clusters", clusters,
			"iterations", iterations,
			"objective", objective,
		)
	default:
		l.InfoContext(ctx, "restart completed",
			"status", string(status),
			"clusters", clusters,
			"iterations", iterations,
			"objective", objective,
		)
	}
}

// LogSelection logs which restart won.
func (l *Logger) LogSelection(ctx context.Context, best, failed int, objective float64) {
	if failed > 0 {
		l.WarnContext(ctx, "restarts excluded after failure",
			"failed", failed,
			"best", best,
			"objective", objective,
		)
		return
	}
	l.DebugContext(ctx, "restart selected", "best", best, "objective", objective)
}
