package dpmeans

import (
	"context"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// DecayPolicy removes stale low-mass clusters from a streaming State.
//
// After each batch, a cluster is removed when its lifetime count is below
// MinCount and it has not absorbed a point in the last IdleBatches batches.
// A cluster touched by the current batch is never removed, nor is the last
// remaining cluster. MinCount == 0 disables decay.
type DecayPolicy struct {
	MinCount    int
	IdleBatches int
}

// Enabled reports whether the policy can remove anything.
func (p DecayPolicy) Enabled() bool { return p.MinCount > 0 }

// Removes reports whether a cluster with the given lifetime count, idle for
// the given number of batches, is removed by the policy.
func (p DecayPolicy) Removes(count, idle int) bool {
	return p.Enabled() && count < p.MinCount && idle >= p.IdleBatches
}

func (p DecayPolicy) validate() error {
	if p.MinCount < 0 {
		return invalidInputf("Decay.MinCount must be >= 0, got %d", p.MinCount)
	}
	if p.Enabled() && p.IdleBatches < 1 {
		return invalidInputf("Decay.IdleBatches must be >= 1 when decay is enabled, got %d", p.IdleBatches)
	}
	return nil
}

// BatchReport describes one streaming update.
type BatchReport struct {
	// Batch is the 1-based sequence number of the batch.
	Batch int

	// Size is the number of points in the batch.
	Size int

	// Labels assigns each batch point to a cluster index of the State as it
	// stands after the update.
	Labels []int

	// Inertia is the sum of squared distances of the batch points to their
	// updated centers; MeanInertia divides it by Size.
	Inertia     float64
	MeanInertia float64

	// BestMeanInertia is the best MeanInertia seen so far, this batch
	// included.
	BestMeanInertia float64

	// Spawned and Decayed count clusters created and removed by this batch.
	Spawned int
	Decayed int

	// Clusters is K after the update.
	Clusters int

	// NoImprovement is the current no-improvement streak.
	NoImprovement int

	// Stabilized is set once NoImprovement reaches Config.MaxNoImprovement.
	// It is advisory: further batches are still accepted.
	Stabilized bool

	Duration time.Duration
}

// MiniBatch is the streaming DP-means engine. It keeps the cluster state
// and the running aggregate (best mean inertia, no-improvement streak,
// per-cluster recency) across PartialFit calls, and never retains batch
// data.
//
// A MiniBatch is not safe for concurrent use. It is consistent after every
// completed PartialFit, so a caller may stop feeding batches at any point.
type MiniBatch struct {
	cfg Config
	src Source
	log *Logger

	state       *State
	lastTouched []int
	batches     int
	best        float64
	streak      int
}

// NewMiniBatch returns an empty streaming engine. The first batch passed to
// PartialFit seeds it using cfg.Init and cfg.InitialClusters and fixes the
// dimensionality.
func NewMiniBatch(cfg Config) (*MiniBatch, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := validateStreamConfig(&cfg); err != nil {
		return nil, err
	}
	return newMiniBatch(cfg, nil, cfg.sourceFor(0), cfg.Logger.WithMode("stream")), nil
}

// NewMiniBatchFrom returns a streaming engine seeded with the given centers,
// each carrying a count of one.
func NewMiniBatchFrom(centers [][]float64, cfg Config) (*MiniBatch, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := validateStreamConfig(&cfg); err != nil {
		return nil, err
	}
	s, err := newStateFromCenters(centers)
	if err != nil {
		return nil, err
	}
	return newMiniBatch(cfg, s, cfg.sourceFor(0), cfg.Logger.WithMode("stream")), nil
}

func newMiniBatch(cfg Config, s *State, src Source, log *Logger) *MiniBatch {
	m := &MiniBatch{
		cfg:  cfg,
		src:  src,
		log:  log,
		best: math.Inf(1),
	}
	if s != nil {
		m.state = s
		m.lastTouched = make([]int, s.K())
	}
	return m
}

// PartialFit absorbs one batch and returns its report. The batch is
// validated before any state changes; an invalid batch leaves the engine
// untouched.
func (m *MiniBatch) PartialFit(batch [][]float64) (BatchReport, error) {
	flat, n, dims, err := flatten(batch)
	if err != nil {
		return BatchReport{}, err
	}
	if m.state != nil && dims != m.state.dims {
		return BatchReport{}, &DimensionMismatchError{Index: 0, Expected: m.state.dims, Actual: dims}
	}
	return m.step(context.Background(), flat, n, dims)
}

// step applies one batch of n points held flat in row-major order.
func (m *MiniBatch) step(ctx context.Context, flat []float64, n, dims int) (BatchReport, error) {
	start := time.Now()
	if m.state == nil {
		s, err := seed(flat, n, dims, m.cfg.InitialClusters, m.cfg.Init, m.src)
		if err != nil {
			return BatchReport{}, err
		}
		m.state = s
		m.lastTouched = make([]int, s.K())
	}
	s := m.state
	m.batches++
	b := m.batches

	touched := bitset.New(uint(s.K()))
	labels := make([]int, n)
	spawned := 0
	for i := 0; i < n; i++ {
		p := flat[i*dims : (i+1)*dims]
		k, d := s.Nearest(p)
		if d > m.cfg.Delta {
			k = s.spawn(p)
			m.lastTouched = append(m.lastTouched, b)
			spawned++
		} else {
			s.accumulate(k, p)
		}
		touched.Set(uint(k))
		labels[i] = k
	}

	for k, ok := touched.NextSet(0); ok; k, ok = touched.NextSet(k + 1) {
		if err := s.refresh(int(k)); err != nil {
			return BatchReport{}, err
		}
		m.lastTouched[k] = b
	}

	inertia := inertiaOf(flat, n, s, labels)
	mean := inertia / float64(n)
	if mean < m.best-m.cfg.ImprovementTol {
		m.best = mean
		m.streak = 0
	} else {
		m.streak++
	}

	decayed := m.decay(b, labels)
	if decayed > 0 {
		m.log.LogDecay(ctx, b, decayed, s.K())
	}

	report := BatchReport{
		Batch:           b,
		Size:            n,
		Labels:          labels,
		Inertia:         inertia,
		MeanInertia:     mean,
		BestMeanInertia: m.best,
		Spawned:         spawned,
		Decayed:         decayed,
		Clusters:        s.K(),
		NoImprovement:   m.streak,
		Stabilized:      m.Stabilized(),
		Duration:        time.Since(start),
	}
	m.cfg.Metrics.RecordBatch(n, spawned, decayed, report.Duration)
	m.log.LogBatch(ctx, report)
	return report, nil
}

// decay applies the DecayPolicy after batch b and rewrites labels to the
// compacted indices. Returns the number of clusters removed.
func (m *MiniBatch) decay(b int, labels []int) int {
	policy := m.cfg.Decay
	s := m.state
	if !policy.Enabled() || s.K() <= 1 {
		return 0
	}

	remaining := s.K()
	remap, removed := s.compact(func(k int) bool {
		if remaining > 1 && policy.Removes(s.counts[k], b-m.lastTouched[k]) {
			remaining--
			return false
		}
		return true
	})
	if removed == 0 {
		return 0
	}

	kept := m.lastTouched[:0]
	for k, to := range remap {
		if to >= 0 {
			kept = append(kept, m.lastTouched[k])
		}
	}
	m.lastTouched = kept
	for i, l := range labels {
		labels[i] = remap[l]
	}
	return removed
}

// Stabilized reports whether the no-improvement streak has reached
// Config.MaxNoImprovement.
func (m *MiniBatch) Stabilized() bool { return m.streak >= m.cfg.MaxNoImprovement }

// Batches returns the number of batches absorbed so far.
func (m *MiniBatch) Batches() int { return m.batches }

// State returns a copy of the current cluster state, or nil before the
// first batch.
func (m *MiniBatch) State() *State {
	if m.state == nil {
		return nil
	}
	return m.state.clone()
}

// Predict returns the cluster nearest to point.
func (m *MiniBatch) Predict(point []float64) (int, error) {
	if m.state == nil {
		return 0, invalidInputf("no batches absorbed yet")
	}
	if len(point) != m.state.dims {
		return 0, &DimensionMismatchError{Index: 0, Expected: m.state.dims, Actual: len(point)}
	}
	k, _ := m.state.Nearest(point)
	return k, nil
}

// Span is a half-open range [Start, End) of point indices.
type Span struct {
	Start, End int
}

// Len returns the number of points in the span.
func (s Span) Len() int { return s.End - s.Start }

// Batches splits n points into consecutive batches of size points. A size of
// n or more yields a single batch covering everything. Otherwise a trailing
// remainder shorter than size is kept as a terminal batch or dropped,
// depending on policy.
func Batches(n, size int, policy PartialBatch) []Span {
	if n <= 0 || size <= 0 {
		return nil
	}
	if size >= n {
		return []Span{{Start: 0, End: n}}
	}
	spans := make([]Span, 0, n/size+1)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			if policy == PartialBatchDiscard {
				break
			}
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}

// FitStream runs mini-batch DP-means over data, replaying it as a sequence
// of Config.BatchSize batches.
func FitStream(data [][]float64, cfg Config) (*Result, error) {
	return FitStreamContext(context.Background(), data, cfg)
}

// FitStreamContext is FitStream with cancellation, observed between batches.
//
// Each restart seeds a fresh State from the whole dataset and replays the
// same batch sequence for up to Config.MaxEpochs epochs, stopping as soon as
// the stream stabilizes. The labels, inertia and objective come from a final
// nearest-center pass over all of data.
func FitStreamContext(ctx context.Context, data [][]float64, cfg Config) (*Result, error) {
	start := time.Now()
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := validateStreamConfig(&cfg); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	spans := Batches(n, cfg.BatchSize, cfg.PartialBatch)

	log := cfg.Logger.WithMode("stream")
	best, summaries, err := runRestarts(ctx, &cfg, log, func(ctx context.Context, restart int) (*restartOutcome, error) {
		src := cfg.sourceFor(restart)
		s, err := seed(flat, n, dims, cfg.InitialClusters, cfg.Init, src)
		if err != nil {
			return nil, err
		}
		m := newMiniBatch(cfg, s, src, log.WithRestart(restart))

		status := StatusExhausted
	epochs:
		for epoch := 0; epoch < cfg.MaxEpochs; epoch++ {
			for _, sp := range spans {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				report, err := m.step(ctx, flat[sp.Start*dims:sp.End*dims], sp.Len(), dims)
				if err != nil {
					return nil, err
				}
				if report.Stabilized {
					status = StatusStabilized
					break epochs
				}
			}
		}

		labels := make([]int, n)
		inertia := assignNearest(flat, n, m.state, labels)
		return &restartOutcome{
			state:      m.state,
			labels:     labels,
			inertia:    inertia,
			objective:  objective(inertia, cfg.Delta, m.state.K()),
			iterations: m.batches,
			status:     status,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return newResult(best, summaries, start), nil
}
