package granular

import (
	"math"

	"github.com/justyntemme/granulator/pkg/dsp/interpolation"
	"github.com/justyntemme/granulator/pkg/dsp/pan"
	"github.com/justyntemme/granulator/pkg/dsp/random"
	"github.com/justyntemme/granulator/pkg/dsp/window"
	"github.com/justyntemme/granulator/pkg/midi"
)

// Output is one grain's contribution to a sample tick.
type Output struct {
	L, R float64
	// Next is the trigger handed to the following grain in the chain.
	Next bool
	Busy bool
}

// Latched is the set of values a grain captured on its last trigger.
type Latched struct {
	Rate     float64 // buffer samples per output sample
	Position float64 // 0..1 within the read bounds
	Duration float64 // output samples
	Skew     float64
	Plateau  float64
	Pan      float64
	Amp      float64
}

// Grain plays one windowed excerpt of the buffer at a time.
//
// A grain is idle until it sees a trigger while idle. It then latches fresh
// randomized parameters, restarts its read head and plays for Duration
// samples. Triggers that arrive while it is busy are passed on as Next.
type Grain struct {
	id   int
	busy bool

	acc float64 // read head, buffer samples since trigger
	age int     // output samples since trigger

	// per-trigger gaussian deviations
	transposeDev, positionDev, durationDev random.LatchedGaussian
	skewDev, plateauDev, panDev            random.LatchedGaussian

	// effective values
	rate, position, duration random.Hold[float64]
	skew, plateau, pan, amp  random.Hold[float64]

	// note layer, assigned by the cluster's partition
	note      uint8
	noteRatio float64
	noteAmp   float64

	window  float64
	readPos float64
}

// NewGrain creates an idle grain.
func NewGrain(id int) Grain {
	g := Grain{id: id, note: midi.RootNote, noteRatio: 1, noteAmp: 1}
	g.rate.Set(1)
	g.duration.Set(1)
	g.skew.Set(0.5)
	g.plateau.Set(MinPlateau)
	g.pan.Set(0.5)
	return g
}

// ID returns the grain's index in its cluster.
func (g *Grain) ID() int { return g.id }

// Busy reports whether the grain produced a non-zero window on its last tick.
func (g *Grain) Busy() bool { return g.busy }

// Window returns the window value of the last tick.
func (g *Grain) Window() float64 { return g.window }

// Latched returns the values captured on the last trigger.
func (g *Grain) Latched() Latched {
	return Latched{
		Rate:     g.rate.Value(),
		Position: g.position.Value(),
		Duration: g.duration.Value(),
		Skew:     g.skew.Value(),
		Plateau:  g.plateau.Value(),
		Pan:      g.pan.Value(),
		Amp:      g.amp.Value(),
	}
}

// SetNote assigns the note layer used from the next trigger on.
func (g *Grain) SetNote(note, velocity uint8) {
	g.note = note
	g.noteRatio = midi.NoteRatio(note)
	g.noteAmp = midi.VelocityGain(velocity)
}

// Note returns the assigned note.
func (g *Grain) Note() uint8 { return g.note }

// Reset returns the grain to idle, keeping its note assignment.
func (g *Grain) Reset() {
	g.busy = false
	g.acc = 0
	g.age = 0
	g.window = 0
}

// Process advances the grain by one output sample.
func (g *Grain) Process(f *Frame, vs *VoiceState, trig bool) Output {
	// Busy grains pass triggers along the chain; idle grains consume them.
	var rising, next bool
	if g.busy {
		next = trig
	} else {
		rising = trig
	}

	if rising {
		g.latch(f, vs)
		g.acc = 0
		g.age = 0
	} else if g.busy {
		g.acc += g.rate.Value()
		g.age++
	}

	if !rising && !g.busy {
		g.window = 0
		return Output{Next: next}
	}

	dur := g.duration.Value()
	progress := float64(g.age+1) / (dur + 1)
	w := window.Grain(progress, g.skew.Value(), g.plateau.Value())
	g.window = w
	g.busy = w > 0
	if !g.busy {
		return Output{Next: next}
	}

	idx := g.readIndex(f)
	s := float64(interpolation.HermiteAt(f.Data, idx)) * w * g.amp.Value()
	l, r := pan.Gains(g.pan.Value())
	return Output{L: s * l, R: s * r, Next: next, Busy: true}
}

// latch draws new deviations and captures the effective values.
func (g *Grain) latch(f *Frame, vs *VoiceState) {
	p := &f.Params
	rng := vs.Gauss

	st := g.transposeDev.Process(rng, true, 0, p.TransposeRand)
	rate := midi.SemitoneRatio(p.Transpose+st) * g.noteRatio * f.rateRatio()
	if !(rate >= MinRate) || math.IsInf(rate, 0) {
		rate = MinRate
	}
	g.rate.Process(rate, true)

	pos := p.Position + g.positionDev.Process(rng, true, 0, p.PositionRand)
	g.position.Process(clamp01(pos), true)

	// duration randomness is proportional to the base duration
	dn := p.Duration + g.durationDev.Process(rng, true, 0, p.DurationRand)*p.Duration
	samples := math.Round(clamp01(dn) * f.MaxGrainSamples)
	if samples < 1 {
		samples = 1
	}
	g.duration.Process(samples, true)

	g.skew.Process(window.ClampSkew(p.Skew+g.skewDev.Process(rng, true, 0, p.SkewRand)), true)

	pl := p.Plateau + g.plateauDev.Process(rng, true, 0, p.PlateauRand)
	g.plateau.Process(math.Min(MaxPlateau, window.ClampPlateau(pl)), true)

	g.pan.Process(clamp01(p.Pan+g.panDev.Process(rng, true, 0, p.PanRand)), true)
	g.amp.Process(g.noteAmp, true)
}

// readIndex maps the read head onto the buffer. The index may fall outside
// the buffer; lookups wrap.
func (g *Grain) readIndex(f *Frame) float64 {
	n := float64(len(f.Data))
	start := (f.Bounds.Begin + g.position.Value()*f.Bounds.Span()) * n
	span := g.duration.Value() * g.rate.Value()

	var offset float64
	switch f.Align {
	case AlignPeak:
		offset = window.PeakPosition(g.skew.Value(), g.plateau.Value()) * span
	default:
		offset = span / 2
	}
	idx := start + g.acc - offset
	if n > 0 {
		g.readPos = float64(interpolation.Wrap(int(math.Floor(idx)), len(f.Data))) / n
	}
	return idx
}

// Describe exports the grain's state with its window scaled by gain.
func (g *Grain) Describe(voice int, gain float64) Description {
	busy := g.busy && gain > 0
	w := g.window * gain
	if !busy {
		w = 0
	}
	return Description{
		Voice:    voice,
		Grain:    g.id,
		Position: g.readPos,
		Rate:     g.rate.Value(),
		Window:   w,
		Pan:      g.pan.Value(),
		Busy:     busy,
	}
}
