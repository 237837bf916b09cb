package random

import "math"

// Distribution shapes uniform draws into a value around mean.
// spread is the distribution's scale; a zero spread must return mean exactly.
type Distribution interface {
	Draw(g *Generator, mean, spread float64) float64
}

// Gaussian draws normally distributed values: mean + spread*N(0,1).
type Gaussian struct{}

// Draw implements Distribution.
func (Gaussian) Draw(g *Generator, mean, spread float64) float64 {
	if spread == 0 {
		return mean
	}
	return mean + spread*g.Norm()
}

// Exponential draws mean scaled by a blend of 1 and an Exp(1) variate.
// spread in [0, 1] moves from a constant (0) to a fully exponential value (1),
// so the expected value stays at mean for every spread.
type Exponential struct{}

// Draw implements Distribution.
func (Exponential) Draw(g *Generator, mean, spread float64) float64 {
	if spread <= 0 {
		return mean
	}
	if spread > 1 {
		spread = 1
	}
	return mean * ((1 - spread) + spread*g.Exp())
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
