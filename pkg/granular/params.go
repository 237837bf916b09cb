// Package granular implements the granular synthesis engine: grains that
// play windowed, randomized excerpts of a shared sample, chained into
// clusters that share a note set and a master trigger.
//
// Everything on the render path is allocation free and never locks. Control
// threads talk to the engine only through Shared, whose fields are atomics
// read once per block into a Frame.
package granular

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Parameter ranges.
const (
	MaxTranspose     = 48.0 // semitones either way
	MaxTransposeRand = 24.0
	MinSpeed         = 0.01 // Hz
	MaxSpeed         = 500.0
	MinPlateau       = 1.0
	MaxPlateau       = 16.0
	MinRate          = 1e-4 // smallest playback ratio a grain accepts
)

// AlignMode selects which point of a grain lands on its position.
type AlignMode int32

const (
	// AlignCenter centres the span a grain reads on its position.
	AlignCenter AlignMode = iota
	// AlignPeak plays the position when the window reaches its peak.
	AlignPeak
)

// String returns the mode name.
func (m AlignMode) String() string {
	switch m {
	case AlignCenter:
		return "center"
	case AlignPeak:
		return "peak"
	default:
		return "unknown"
	}
}

// ParseAlignMode parses "center" or "peak".
func ParseAlignMode(s string) (AlignMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "centre", "":
		return AlignCenter, nil
	case "peak":
		return AlignPeak, nil
	}
	return AlignCenter, errors.Errorf("unknown align mode %q", s)
}

// Params are the cluster-wide grain controls. Each base value has a
// randomness amount that sets the spread of the per-trigger deviation.
type Params struct {
	Transpose     float64 // semitones
	TransposeRand float64 // semitones, gaussian spread
	Position      float64 // 0..1 within the read bounds
	PositionRand  float64
	Speed         float64 // master trigger rate, Hz
	SpeedRand     float64 // 0..1, exponential blend
	Duration      float64 // 0..1 of the maximum grain length
	DurationRand  float64 // proportional to Duration
	Skew          float64 // window peak position, 0..1
	SkewRand      float64
	Plateau       float64 // >= 1, widens the window's flat top
	PlateauRand   float64
	Pan           float64 // 0 left, 0.5 centre, 1 right
	PanRand       float64
	Shuffle       bool // re-shuffle the grain chain on every note-on
}

// DefaultParams returns the initial control values.
func DefaultParams() Params {
	return Params{
		Position:     0.5,
		PositionRand: 0.02,
		Speed:        10,
		Duration:     0.1,
		Skew:         0.5,
		Plateau:      1,
		Pan:          0.5,
		PanRand:      0.1,
	}
}

// Sanitize clamps every field into range. NaN falls back to the default.
func (p Params) Sanitize() Params {
	d := DefaultParams()
	p.Transpose = clampOr(p.Transpose, -MaxTranspose, MaxTranspose, d.Transpose)
	p.TransposeRand = clampOr(p.TransposeRand, 0, MaxTransposeRand, 0)
	p.Position = clampOr(p.Position, 0, 1, d.Position)
	p.PositionRand = clampOr(p.PositionRand, 0, 1, 0)
	p.Speed = clampOr(p.Speed, MinSpeed, MaxSpeed, d.Speed)
	p.SpeedRand = clampOr(p.SpeedRand, 0, 1, 0)
	p.Duration = clampOr(p.Duration, 0, 1, d.Duration)
	p.DurationRand = clampOr(p.DurationRand, 0, 1, 0)
	p.Skew = clampOr(p.Skew, 0, 1, d.Skew)
	p.SkewRand = clampOr(p.SkewRand, 0, 1, 0)
	p.Plateau = clampOr(p.Plateau, MinPlateau, MaxPlateau, d.Plateau)
	p.PlateauRand = clampOr(p.PlateauRand, 0, MaxPlateau, 0)
	p.Pan = clampOr(p.Pan, 0, 1, d.Pan)
	p.PanRand = clampOr(p.PanRand, 0, 1, 0)
	return p
}

// ReadBounds restricts where in the buffer grains may read, as normalized
// [Begin, End] positions.
type ReadBounds struct {
	Begin float64
	End   float64
}

// FullBounds covers the whole buffer.
var FullBounds = ReadBounds{Begin: 0, End: 1}

// ErrInvalidBounds is returned for bounds outside [0, 1] or with End <= Begin.
var ErrInvalidBounds = errors.New("invalid read bounds")

// Validate checks 0 <= Begin < End <= 1.
func (b ReadBounds) Validate() error {
	if math.IsNaN(b.Begin) || math.IsNaN(b.End) || b.Begin < 0 || b.End > 1 || b.End <= b.Begin {
		return errors.Wrapf(ErrInvalidBounds, "[%g, %g]", b.Begin, b.End)
	}
	return nil
}

// Span returns End - Begin.
func (b ReadBounds) Span() float64 {
	return b.End - b.Begin
}

func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
