// Package window provides the grain amplitude window: a skewed triangle,
// lifted into a plateau and rounded by a Parzen curve.
package window

import "math"

const (
	// MinSkew and MaxSkew keep the triangle peak strictly inside (0, 1).
	MinSkew = 0.001
	MaxSkew = 0.999
	// MinPlateau is the plateau multiplier that leaves the triangle untouched.
	MinPlateau = 1.0
)

// Triangle returns a unit-height triangle over x in [0, 1] whose peak sits at
// skew. Values of x outside [0, 1] return 0.
func Triangle(x, skew float64) float64 {
	if !(x > 0 && x < 1) {
		return 0
	}
	skew = ClampSkew(skew)
	if x <= skew {
		return x / skew
	}
	return (1 - x) / (1 - skew)
}

// Parzen maps u in [0, 1] onto a smooth 0..1 curve using the Parzen
// (de la Vallée Poussin) kernel evaluated at distance 1-u from its centre.
// Parzen(0) = 0, Parzen(1) = 1 and both ends have zero slope.
func Parzen(u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return 1
	}
	d := 1 - u
	if d <= 0.5 {
		return 1 - 6*d*d*(1-d)
	}
	e := 1 - d
	return 2 * e * e * e
}

// Grain evaluates the full grain window at progress x in [0, 1].
// plateau >= 1 scales the triangle before clipping at 1, widening the flat top;
// the clipped ramp is then smoothed so the peak stays exactly 1.
// The result is always in [0, 1] and exactly 0 outside (0, 1).
func Grain(x, skew, plateau float64) float64 {
	tri := Triangle(x, skew)
	if tri <= 0 {
		return 0
	}
	p := ClampPlateau(plateau)
	lifted := tri * p
	if lifted > 1 {
		lifted = 1
	}
	return Parzen(lifted)
}

// PeakPosition returns where in [0, 1] the window first reaches its maximum.
func PeakPosition(skew, plateau float64) float64 {
	return ClampSkew(skew) / ClampPlateau(plateau)
}

// ClampSkew limits skew to [MinSkew, MaxSkew]; NaN maps to the midpoint.
func ClampSkew(skew float64) float64 {
	if math.IsNaN(skew) {
		return 0.5
	}
	return math.Max(MinSkew, math.Min(MaxSkew, skew))
}

// ClampPlateau limits plateau to >= MinPlateau; NaN and +Inf map to MinPlateau.
func ClampPlateau(plateau float64) float64 {
	if !(plateau >= MinPlateau) || math.IsInf(plateau, 1) {
		return MinPlateau
	}
	return plateau
}
