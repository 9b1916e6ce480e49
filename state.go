package dpmeans

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is the mutable set of clusters shared by the batch and streaming
// engines. Clusters live in flat row-major arenas indexed 0..K-1; removing a
// cluster compacts the arenas rather than leaving holes.
//
// For every cluster k the running sum and count satisfy
// center(k) == sum(k) / count(k) after each completed iteration or batch.
type State struct {
	dims    int
	centers []float64
	sums    []float64
	counts  []int
}

func newState(dims int) *State {
	return &State{dims: dims}
}

// newStateFromCenters builds a State with one unit-mass cluster per center.
func newStateFromCenters(centers [][]float64) (*State, error) {
	if len(centers) == 0 {
		return nil, invalidInputf("no initial centers")
	}
	dims := len(centers[0])
	if dims == 0 {
		return nil, invalidInputf("initial centers have zero dimensions")
	}
	for i, c := range centers {
		if len(c) != dims {
			return nil, &DimensionMismatchError{Index: i, Expected: dims, Actual: len(c)}
		}
		for j, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidInputf("initial center %d has non-finite coordinate %d", i, j)
			}
		}
	}
	s := newState(dims)
	for _, c := range centers {
		s.spawn(c)
	}
	return s, nil
}

// K returns the number of clusters.
func (s *State) K() int { return len(s.counts) }

// Dims returns the dimensionality of the centers.
func (s *State) Dims() int { return s.dims }

// Center returns a copy of cluster k's center.
func (s *State) Center(k int) []float64 {
	out := make([]float64, s.dims)
	copy(out, s.center(k))
	return out
}

// Centers returns copies of all centers, indexed by cluster.
func (s *State) Centers() [][]float64 {
	out := make([][]float64, s.K())
	for k := range out {
		out[k] = s.Center(k)
	}
	return out
}

// Count returns the number of points cluster k has absorbed.
func (s *State) Count(k int) int { return s.counts[k] }

// Counts returns a copy of all cluster counts.
func (s *State) Counts() []int {
	out := make([]int, len(s.counts))
	copy(out, s.counts)
	return out
}

// Nearest returns the closest cluster to point and its squared distance.
func (s *State) Nearest(point []float64) (int, float64) {
	return Nearest(point, s.centers, s.dims)
}

func (s *State) center(k int) []float64 { return s.centers[k*s.dims : (k+1)*s.dims] }

func (s *State) sum(k int) []float64 { return s.sums[k*s.dims : (k+1)*s.dims] }

// spawn appends a cluster centered on point with a count of one.
func (s *State) spawn(point []float64) int {
	s.centers = append(s.centers, point...)
	s.sums = append(s.sums, point...)
	s.counts = append(s.counts, 1)
	return len(s.counts) - 1
}

// accumulate adds point to cluster k's running sum without moving its center.
func (s *State) accumulate(k int, point []float64) {
	floats.Add(s.sum(k), point)
	s.counts[k]++
}

// refresh recomputes cluster k's center from its running sum and count.
func (s *State) refresh(k int) error {
	if s.counts[k] <= 0 {
		return degeneracyf("cluster %d has count %d", k, s.counts[k])
	}
	floats.ScaleTo(s.center(k), 1/float64(s.counts[k]), s.sum(k))
	return nil
}

// reset zeroes every running sum and count, keeping the centers.
func (s *State) reset() {
	for i := range s.sums {
		s.sums[i] = 0
	}
	for i := range s.counts {
		s.counts[i] = 0
	}
}

// compact drops every cluster for which keep returns false and re-densifies
// the indices. It returns the old-to-new index map (-1 for removed clusters)
// and the number of clusters removed.
func (s *State) compact(keep func(k int) bool) ([]int, int) {
	remap := make([]int, s.K())
	next := 0
	for k := range remap {
		if !keep(k) {
			remap[k] = -1
			continue
		}
		if next != k {
			copy(s.center(next), s.center(k))
			copy(s.sum(next), s.sum(k))
			s.counts[next] = s.counts[k]
		}
		remap[k] = next
		next++
	}
	removed := s.K() - next
	s.centers = s.centers[:next*s.dims]
	s.sums = s.sums[:next*s.dims]
	s.counts = s.counts[:next]
	return remap, removed
}

// clone returns a deep copy of s.
func (s *State) clone() *State {
	c := &State{
		dims:    s.dims,
		centers: make([]float64, len(s.centers)),
		sums:    make([]float64, len(s.sums)),
		counts:  make([]int, len(s.counts)),
	}
	copy(c.centers, s.centers)
	copy(c.sums, s.sums)
	copy(c.counts, s.counts)
	return c
}
