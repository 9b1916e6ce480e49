package dpmeans

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
)

// restartOutcome is what a single restart hands back to the selector.
type restartOutcome struct {
	restart    int
	state      *State
	labels     []int
	inertia    float64
	objective  float64
	iterations int
	status     Status
}

// runBatch iterates the DP-means fixed point on s until it converges or
// cfg.MaxIter iterations have run. s is mutated in place.
//
// An iteration has converged when no label changed since the previous
// iteration, no cluster was spawned or removed, and every center moved by at
// most cfg.Tol. The first iteration has no previous labelling, so it
// converges on the cluster and center tests alone.
func runBatch(ctx context.Context, flat []float64, n int, s *State, cfg *Config, log *Logger) (*restartOutcome, error) {
	labels := make([]int, n)
	var prevLabels []int
	prevCenters := make([]float64, 0, len(s.centers))

	status := StatusMaxIterReached
	iter := 0
	for iter < cfg.MaxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++
		start := time.Now()
		prevCenters = append(prevCenters[:0], s.centers...)

		spawned := assignGrow(flat, n, s, cfg.Delta, labels)
		removed, err := updateMeans(flat, n, s, labels)
		if err != nil {
			return nil, err
		}

		changed := 0
		for i := range prevLabels {
			if prevLabels[i] != labels[i] {
				changed++
			}
		}

		cfg.Metrics.RecordIteration(s.K(), time.Since(start))
		log.LogIteration(ctx, iter, s.K(), changed, spawned, removed)

		if changed == 0 && spawned == 0 && removed == 0 &&
			floats.EqualApprox(prevCenters, s.centers, cfg.Tol) {
			status = StatusConverged
			break
		}

		if prevLabels == nil {
			prevLabels = make([]int, n)
		}
		copy(prevLabels, labels)
	}

	inertia := inertiaOf(flat, n, s, labels)
	return &restartOutcome{
		state:      s,
		labels:     labels,
		inertia:    inertia,
		objective:  objective(inertia, cfg.Delta, s.K()),
		iterations: iter,
		status:     status,
	}, nil
}

// assignGrow labels every point with its nearest center, spawning a new
// cluster at the point whenever the nearest squared distance exceeds delta.
// Points are visited in order, so later points see clusters spawned by
// earlier ones. Returns the number of clusters spawned.
func assignGrow(flat []float64, n int, s *State, delta float64, labels []int) int {
	dims := s.dims
	spawned := 0
	for i := 0; i < n; i++ {
		p := flat[i*dims : (i+1)*dims]
		k, d := s.Nearest(p)
		if d > delta {
			k = s.spawn(p)
			spawned++
		}
		labels[i] = k
	}
	return spawned
}

// updateMeans recomputes every center as the mean of its members, removing
// clusters that received no points and rewriting labels to the compacted
// indices. Returns the number of clusters removed.
func updateMeans(flat []float64, n int, s *State, labels []int) (int, error) {
	dims := s.dims
	s.reset()
	for i := 0; i < n; i++ {
		s.accumulate(labels[i], flat[i*dims:(i+1)*dims])
	}

	remap, removed := s.compact(func(k int) bool { return s.counts[k] > 0 })
	if removed > 0 {
		for i, l := range labels {
			labels[i] = remap[l]
		}
	}

	for k := 0; k < s.K(); k++ {
		if err := s.refresh(k); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// assignNearest labels every point with its nearest center without growing
// the state, and returns the resulting inertia.
func assignNearest(flat []float64, n int, s *State, labels []int) float64 {
	dims := s.dims
	var inertia float64
	for i := 0; i < n; i++ {
		k, d := s.Nearest(flat[i*dims : (i+1)*dims])
		labels[i] = k
		inertia += d
	}
	return inertia
}

func inertiaOf(flat []float64, n int, s *State, labels []int) float64 {
	dims := s.dims
	var inertia float64
	for i := 0; i < n; i++ {
		inertia += SquaredEuclidean(flat[i*dims:(i+1)*dims], s.center(labels[i]))
	}
	return inertia
}

// objective is the DP-means cost: inertia plus delta per cluster.
func objective(inertia, delta float64, k int) float64 {
	return inertia + delta*float64(k)
}
