package dpmeans

import "gonum.org/v1/gonum/floats"

// Seed draws up to k initial centers from data with the given strategy and
// returns them as a fresh State. k is capped at the number of points.
//
// With InitKMeansPlusPlus the first center is a uniform draw and every
// further center is drawn with probability proportional to its squared
// distance to the nearest center chosen so far. When all those distances are
// zero the draw falls back to uniform.
func Seed(data [][]float64, k int, init Init, src Source) (*State, error) {
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, invalidInputf("k must be >= 1, got %d", k)
	}
	return seed(flat, n, dims, k, init, src)
}

func seed(flat []float64, n, dims, k int, init Init, src Source) (*State, error) {
	k = min(k, n)
	s := newState(dims)
	point := func(i int) []float64 { return flat[i*dims : (i+1)*dims] }

	switch init {
	case InitMean:
		mean := make([]float64, dims)
		for i := 0; i < n; i++ {
			floats.Add(mean, point(i))
		}
		floats.Scale(1/float64(n), mean)
		s.spawn(mean)

	case InitRandom:
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		for i := 0; i < k; i++ {
			j, err := uniformIndex(src, n-i)
			if err != nil {
				return nil, err
			}
			j += i
			perm[i], perm[j] = perm[j], perm[i]
			s.spawn(point(perm[i]))
		}

	default:
		first, err := uniformIndex(src, n)
		if err != nil {
			return nil, err
		}
		s.spawn(point(first))

		minDist := make([]float64, n)
		for i := range minDist {
			minDist[i] = SquaredEuclidean(point(i), s.center(0))
		}
		for s.K() < k {
			idx := src.Weighted(minDist)
			if idx < 0 {
				if idx, err = uniformIndex(src, n); err != nil {
					return nil, err
				}
			}
			if idx >= n {
				return nil, invalidInputf("random source returned index %d outside [0, %d)", idx, n)
			}
			c := s.spawn(point(idx))
			for i := range minDist {
				if d := SquaredEuclidean(point(i), s.center(c)); d < minDist[i] {
					minDist[i] = d
				}
			}
		}
	}
	return s, nil
}
