package dpmeans

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from the engines.
// Restarts run concurrently, so implementations must be safe for concurrent
// use.
type MetricsCollector interface {
	// RecordIteration is called after each batch-engine iteration.
	RecordIteration(clusters int, duration time.Duration)

	// RecordBatch is called after each streaming update with the batch size,
	// the number of clusters spawned and decayed, and the time taken.
	RecordBatch(size, spawned, decayed int, duration time.Duration)

	// RecordRestart is called once per restart. err is nil on success.
	RecordRestart(status Status, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIteration(int, time.Duration)         {}
func (NoopMetricsCollector) RecordBatch(int, int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordRestart(Status, time.Duration, error) {}

// BasicMetricsCollector keeps simple in-memory counters.
type BasicMetricsCollector struct {
	Iterations        atomic.Int64
	IterationNanos    atomic.Int64
	Batches           atomic.Int64
	BatchPoints       atomic.Int64
	Spawned           atomic.Int64
	Decayed           atomic.Int64
	Restarts          atomic.Int64
	RestartErrors     atomic.Int64
	Converged         atomic.Int64
	MaxIterReached    atomic.Int64
	Stabilized        atomic.Int64
	Exhausted         atomic.Int64
	RestartTotalNanos atomic.Int64
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ int, duration time.Duration) {
	b.Iterations.Add(1)
	b.IterationNanos.Add(duration.Nanoseconds())
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(size, spawned, decayed int, _ time.Duration) {
	b.Batches.Add(1)
	b.BatchPoints.Add(int64(size))
	b.Spawned.Add(int64(spawned))
	b.Decayed.Add(int64(decayed))
}

// RecordRestart implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestart(status Status, duration time.Duration, err error) {
	b.Restarts.Add(1)
	b.RestartTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RestartErrors.Add(1)
		return
	}
	switch status {
	case StatusConverged:
		b.Converged.Add(1)
	case StatusMaxIterReached:
		b.MaxIterReached.Add(1)
	case StatusStabilized:
		b.Stabilized.Add(1)
	case StatusExhausted:
		b.Exhausted.Add(1)
	}
}
