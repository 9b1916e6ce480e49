package dpmeans

import (
	"context"
	"math"
	"runtime"
	"time"
)

// Config controls DP-means clustering behavior for both the batch and the
// streaming engines. Start with [DefaultConfig] and override the fields you
// need.
type Config struct {
	// Delta is the growth threshold. A point whose squared Euclidean distance
	// to every center exceeds Delta spawns a new cluster. It is also the
	// per-cluster penalty in the objective. Smaller values give more clusters.
	// Must be > 0 and finite. Default: 1.0.
	Delta float64

	// InitialClusters is how many centers each restart is seeded with.
	// Capped at the number of points. Must be >= 1. Default: 1.
	InitialClusters int

	// Init chooses the seeding strategy: "k-means++", "random" or "mean".
	// "mean" seeds a single center at the global mean and requires
	// InitialClusters == 1. Default: "k-means++".
	Init Init

	// NInit is the number of independent restarts. The restart with the
	// lowest objective wins; ties go to the earliest restart.
	// Must be >= 1. Default: 10.
	NInit int

	// MaxIter caps the batch engine's iterations per restart. Hitting the cap
	// is reported as StatusMaxIterReached, not as an error.
	// Must be >= 1. Default: 300.
	MaxIter int

	// Tol is the largest per-coordinate center movement the batch engine
	// still treats as "unchanged" when testing for convergence.
	// Must be >= 0. Default: 1e-4.
	Tol float64

	// BatchSize is the number of points per streaming batch. A BatchSize
	// larger than the dataset yields a single batch.
	// Must be >= 1 (streaming only). Default: 1024.
	BatchSize int

	// MaxEpochs caps how many times the streaming driver replays the batch
	// sequence per restart. Must be >= 1 (streaming only). Default: 100.
	MaxEpochs int

	// MaxNoImprovement is the number of consecutive batches without a mean
	// inertia improvement after which the stream counts as stabilized.
	// Must be >= 1 (streaming only). Default: 10.
	MaxNoImprovement int

	// ImprovementTol is the margin by which a batch's mean inertia must beat
	// the best seen so far to reset the no-improvement streak.
	// Must be >= 0. Default: 0 (strictly better).
	ImprovementTol float64

	// PartialBatch decides whether the streaming driver feeds a trailing
	// short batch ("keep") or drops it ("discard"). Default: "keep".
	PartialBatch PartialBatch

	// Decay removes stale low-mass clusters in streaming mode.
	// The zero value disables decay.
	Decay DecayPolicy

	// Seed seeds the per-restart random sources. Default: 0.
	Seed uint64

	// Source, when set, supplies the random source for each restart instead
	// of NewSource(Seed, restart). It must return independent sources for
	// different restarts.
	Source func(restart int) Source

	// Workers is the number of restarts run concurrently.
	// 0 means use runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Logger receives structured logs. nil disables logging.
	Logger *Logger

	// Metrics receives operational metrics. nil disables collection.
	Metrics MetricsCollector
}

// Result contains the output of a batch or streaming run.
type Result struct {
	// Centers holds one center per cluster, indexed 0..K-1.
	Centers [][]float64

	// Counts is the mass of each cluster: its member count for the batch
	// engine, its lifetime absorbed count for the streaming engine.
	Counts []int

	// Labels assigns each point to a cluster index. It reflects the most
	// recent full pass over the data.
	Labels []int

	// Inertia is the sum of squared distances from points to their centers.
	Inertia float64

	// Objective is Inertia + Delta*len(Centers).
	Objective float64

	// Iterations is the number of iterations (batch) or batch updates
	// (streaming) the winning restart performed.
	Iterations int

	// Status tells how the winning restart ended.
	Status Status

	// BestRestart is the index of the winning restart.
	BestRestart int

	// Restarts summarizes every restart, including failed ones.
	Restarts []RestartSummary

	// Duration is the wall-clock time of the whole call.
	Duration time.Duration
}

// RestartSummary describes one restart.
type RestartSummary struct {
	Restart    int
	Clusters   int
	Iterations int
	Inertia    float64
	Objective  float64
	Status     Status
	Duration   time.Duration

	// Err is set when the restart failed on invalid input and was excluded
	// from selection.
	Err error
}

// Predict returns the index of the center nearest to point. The point must
// have the dimensionality of the centers.
func (r *Result) Predict(point []float64) (int, error) {
	if len(r.Centers) == 0 {
		return 0, invalidInputf("result has no centers")
	}
	if dims := len(r.Centers[0]); len(point) != dims {
		return 0, &DimensionMismatchError{Index: 0, Expected: dims, Actual: len(point)}
	}
	best := 0
	bestDist := math.Inf(1)
	for k, c := range r.Centers {
		if d := SquaredEuclidean(point, c); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, nil
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Delta:            1.0,
		InitialClusters:  1,
		Init:             InitKMeansPlusPlus,
		NInit:            10,
		MaxIter:          300,
		Tol:              1e-4,
		BatchSize:        1024,
		MaxEpochs:        100,
		MaxNoImprovement: 10,
		PartialBatch:     PartialBatchKeep,
	}
}

// validateConfig checks the fields shared by both engines.
func validateConfig(cfg *Config) error {
	if !(cfg.Delta > 0) || math.IsInf(cfg.Delta, 1) {
		return invalidInputf("Delta must be > 0 and finite, got %v", cfg.Delta)
	}
	if cfg.InitialClusters < 1 {
		return invalidInputf("InitialClusters must be >= 1, got %d", cfg.InitialClusters)
	}
	if cfg.NInit < 1 {
		return invalidInputf("NInit must be >= 1, got %d", cfg.NInit)
	}
	if cfg.MaxIter < 1 {
		return invalidInputf("MaxIter must be >= 1, got %d", cfg.MaxIter)
	}
	if !(cfg.Tol >= 0) {
		return invalidInputf("Tol must be >= 0, got %v", cfg.Tol)
	}
	if cfg.Workers < 0 {
		return invalidInputf("Workers must be >= 0, got %d", cfg.Workers)
	}
	return validateInit(cfg)
}

// validateStreamConfig checks the fields only the streaming engine reads.
func validateStreamConfig(cfg *Config) error {
	if cfg.BatchSize < 1 {
		return invalidInputf("BatchSize must be >= 1, got %d", cfg.BatchSize)
	}
	if cfg.MaxEpochs < 1 {
		return invalidInputf("MaxEpochs must be >= 1, got %d", cfg.MaxEpochs)
	}
	if cfg.MaxNoImprovement < 1 {
		return invalidInputf("MaxNoImprovement must be >= 1, got %d", cfg.MaxNoImprovement)
	}
	if !(cfg.ImprovementTol >= 0) {
		return invalidInputf("ImprovementTol must be >= 0, got %v", cfg.ImprovementTol)
	}
	if cfg.PartialBatch != PartialBatchKeep && cfg.PartialBatch != PartialBatchDiscard {
		return invalidInputf("PartialBatch must be %q or %q, got %q", PartialBatchKeep, PartialBatchDiscard, cfg.PartialBatch)
	}
	return cfg.Decay.validate()
}

// applyDefaults fills in zero-valued config fields that have no meaningful
// zero value.
func applyDefaults(cfg *Config) {
	if cfg.Init == "" {
		cfg.Init = InitKMeansPlusPlus
	}
	if cfg.PartialBatch == "" {
		cfg.PartialBatch = PartialBatchKeep
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetricsCollector{}
	}
}

// flatten copies data into a row-major slice, checking that it is non-empty,
// rectangular and finite.
func flatten(data [][]float64) ([]float64, int, int, error) {
	n := len(data)
	if n == 0 {
		return nil, 0, 0, invalidInputf("empty dataset")
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, 0, 0, invalidInputf("points have zero dimensions")
	}
	flat := make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, 0, 0, &DimensionMismatchError{Index: i, Expected: dims, Actual: len(row)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, 0, invalidInputf("point %d has non-finite coordinate %d", i, j)
			}
		}
		copy(flat[i*dims:], row)
	}
	return flat, n, dims, nil
}

// Cluster runs batch DP-means on data. Each element is a point; all points
// must have the same dimensionality. Returns an error wrapping
// ErrInvalidInput if the config or the data is invalid.
func Cluster(data [][]float64, cfg Config) (*Result, error) {
	return ClusterContext(context.Background(), data, cfg)
}

// ClusterContext is Cluster with cancellation. Cancellation is observed
// between iterations and returns ctx.Err().
func ClusterContext(ctx context.Context, data [][]float64, cfg Config) (*Result, error) {
	start := time.Now()
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger.WithMode("batch")
	best, summaries, err := runRestarts(ctx, &cfg, log, func(ctx context.Context, restart int) (*restartOutcome, error) {
		s, err := seed(flat, n, dims, cfg.InitialClusters, cfg.Init, cfg.sourceFor(restart))
		if err != nil {
			return nil, err
		}
		return runBatch(ctx, flat, n, s, &cfg, log.WithRestart(restart))
	})
	if err != nil {
		return nil, err
	}
	return newResult(best, summaries, start), nil
}

// ClusterFrom runs the batch fixed point once, starting from the given
// centers instead of a random draw. NInit, Init and InitialClusters are
// ignored. Restarting from the centers of a converged run leaves centers and
// labels unchanged.
func ClusterFrom(data [][]float64, centers [][]float64, cfg Config) (*Result, error) {
	start := time.Now()
	applyDefaults(&cfg)
	cfg.NInit = 1
	cfg.Init = InitKMeansPlusPlus
	cfg.InitialClusters = 1
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	s, err := newStateFromCenters(centers)
	if err != nil {
		return nil, err
	}
	if s.Dims() != dims {
		return nil, &DimensionMismatchError{Index: 0, Expected: dims, Actual: s.Dims()}
	}

	log := cfg.Logger.WithMode("batch")
	best, summaries, err := runRestarts(context.Background(), &cfg, log, func(ctx context.Context, _ int) (*restartOutcome, error) {
		return runBatch(ctx, flat, n, s, &cfg, log.WithRestart(0))
	})
	if err != nil {
		return nil, err
	}
	return newResult(best, summaries, start), nil
}

// newResult packages the winning restart.
func newResult(best *restartOutcome, summaries []RestartSummary, start time.Time) *Result {
	return &Result{
		Centers:     best.state.Centers(),
		Counts:      best.state.Counts(),
		Labels:      best.labels,
		Inertia:     best.inertia,
		Objective:   best.objective,
		Iterations:  best.iterations,
		Status:      best.status,
		BestRestart: best.restart,
		Restarts:    summaries,
		Duration:    time.Since(start),
	}
}
