// Package pan provides stereo panning laws.
package pan

import (
	"math"
)

// Gains returns constant-power (sine/cosine) left and right gains for a
// unipolar position: 0.0 = hard left, 0.5 = center, 1.0 = hard right.
// Out-of-range positions are clamped.
func Gains(position float64) (left, right float64) {
	if position < 0 || math.IsNaN(position) {
		position = 0
	} else if position > 1 {
		position = 1
	}

	// Map [0, 1] onto [0, π/2]
	angle := position * math.Pi / 2
	return math.Cos(angle), math.Sin(angle)
}
