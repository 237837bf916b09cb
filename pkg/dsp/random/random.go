// Package random provides deterministic random sources and sample-and-hold
// primitives for per-trigger parameter randomization.
//
// Everything in this package is real-time safe: after construction no method
// allocates, locks or blocks. Generators are not safe for concurrent use; give
// each voice its own streams.
package random

import (
	"math/rand/v2"
)

// streamIncrement decorrelates the PCG stream from the seed itself.
const streamIncrement = 0x9e3779b97f4a7c15

// Generator is a fast, seedable random source.
type Generator struct {
	rand *rand.Rand
}

// New creates a generator seeded with seed.
func New(seed uint64) *Generator {
	return &Generator{rand: rand.New(rand.NewPCG(seed, seed^streamIncrement))}
}

// Norm returns a standard normal value (mean 0, stddev 1).
func (g *Generator) Norm() float64 {
	return g.rand.NormFloat64()
}

// Exp returns an exponentially distributed value with rate 1 (mean 1).
func (g *Generator) Exp() float64 {
	return g.rand.ExpFloat64()
}

// Shuffle permutes order in place (Fisher-Yates).
func (g *Generator) Shuffle(order []int) {
	for i := len(order) - 1; i > 0; i-- {
		j := g.rand.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}
