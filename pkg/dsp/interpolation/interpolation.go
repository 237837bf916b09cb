// Package interpolation provides fractional-index sample lookup.
package interpolation

import "math"

// Hermite performs 4-point, 3rd-order Hermite interpolation.
// frac is the fractional position between y1 and y2 (0.0 to 1.0).
func Hermite(y0, y1, y2, y3, frac float32) float32 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5*(y3-y0) + 1.5*(y1-y2)

	return ((c3*frac+c2)*frac+c1)*frac + c0
}

// Wrap maps any integer index onto [0, n). n must be positive.
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// split separates pos into a wrapped integer index and a fraction in [0, 1).
func split(pos float64, n int) (int, float32) {
	fl := math.Floor(pos)
	frac := float32(pos - fl)
	// Reduce in float space first so huge positions never overflow int.
	base := math.Mod(fl, float64(n))
	return Wrap(int(base), n), frac
}

// HermiteAt reads buffer at a fractional position with Hermite interpolation.
// Positions outside the buffer wrap (modulo addressing), including across
// the seam between the last and first sample. An empty buffer reads as zero,
// as does a non-finite position.
func HermiteAt(buffer []float32, pos float64) float32 {
	n := len(buffer)
	if n == 0 || math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0
	}

	i, frac := split(pos, n)
	y0 := buffer[Wrap(i-1, n)]
	y1 := buffer[i]
	y2 := buffer[Wrap(i+1, n)]
	y3 := buffer[Wrap(i+2, n)]

	return Hermite(y0, y1, y2, y3, frac)
}
