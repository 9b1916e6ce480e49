package dpmeans

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Source is the randomness the engine consumes. Implementations must be
// deterministic for a given construction so that seeded runs reproduce.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64

	// Weighted returns an index drawn with probability proportional to
	// weights[i], or -1 when the weights sum to zero.
	Weighted(weights []float64) int
}

type pcgSource struct {
	pcg *rand.PCG
	rng *rand.Rand
}

// NewSource returns a PCG-backed Source. Restart r of a run seeded with seed
// uses NewSource(seed, uint64(r)), so each restart has an independent stream.
func NewSource(seed, stream uint64) Source {
	pcg := rand.NewPCG(seed, stream)
	return &pcgSource{pcg: pcg, rng: rand.New(pcg)}
}

func (p *pcgSource) Float64() float64 { return p.rng.Float64() }

func (p *pcgSource) Weighted(weights []float64) int {
	if len(weights) == 0 || !(floats.Sum(weights) > 0) {
		return -1
	}
	idx, ok := sampleuv.NewWeighted(weights, p.pcg).Take()
	if !ok {
		return -1
	}
	return idx
}

// uniformIndex draws an index in [0, n) from src.
func uniformIndex(src Source, n int) (int, error) {
	u := src.Float64()
	if !(u >= 0 && u < 1) {
		return 0, invalidInputf("random source returned %v outside [0, 1)", u)
	}
	return int(u * float64(n)), nil
}

func (cfg *Config) sourceFor(restart int) Source {
	if cfg.Source != nil {
		return cfg.Source(restart)
	}
	return NewSource(cfg.Seed, uint64(restart))
}
