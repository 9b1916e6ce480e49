package dpmeans

import "math"

// SquaredEuclidean returns the squared Euclidean distance between a and b.
// It skips the square root; DP-means compares Delta against squared
// distances and the objective is a sum of them.
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Nearest returns the index of the center closest to point and the squared
// distance to it. centers is flat row-major with dims columns. Every center
// is evaluated; on ties the lowest index wins. With no centers, or dims <= 0,
// it returns (-1, +Inf).
func Nearest(point, centers []float64, dims int) (int, float64) {
	if dims <= 0 {
		return -1, math.Inf(1)
	}
	best := -1
	bestDist := math.Inf(1)
	k := len(centers) / dims
	for j := 0; j < k; j++ {
		d := SquaredEuclidean(point, centers[j*dims:(j+1)*dims])
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	if best < 0 && k > 0 {
		// Every distance was NaN; fall back to the first center.
		return 0, bestDist
	}
	return best, bestDist
}
