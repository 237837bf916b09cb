package granular

import (
	"math"

	"github.com/justyntemme/granulator/pkg/dsp/oscillator"
	"github.com/justyntemme/granulator/pkg/dsp/random"
)

// Engine is a polyphonic grain generator driven one stereo sample at a time.
type Engine interface {
	// Prepare picks up block-level settings from f. Call once per block
	// before Render.
	Prepare(f *Frame)
	// Render produces one stereo sample. A false-to-true transition of trig
	// fires the chain in addition to the internal master trigger.
	Render(f *Frame, trig bool) (l, r float64)
	NoteOn(note, velocity uint8)
	NoteOff(note uint8)
	ClearNotes()
	Shuffle()
	// Active returns how many grains were busy on the last tick.
	Active() int
	// Corrupt reports a non-finite sum since the last Prepare.
	Corrupt() bool
	Describe(dst []Description, gain float64) []Description
	Reset()
}

// Cluster is the Engine implementation. It owns a fixed pool of grains
// processed as a chain: the master trigger enters the first grain in chain
// order and each grain's Next output triggers the one after it.
type Cluster struct {
	vs     *VoiceState
	grains []Grain
	order  []int
	notes  NoteHolder

	phasor   *oscillator.Phasor
	ramp     oscillator.RampTrigger
	speed    random.LatchedExponential
	primed   bool
	prevTrig bool
	gate     random.Edge

	norm    float64
	active  int
	corrupt bool
	shuffle bool
}

var _ Engine = (*Cluster)(nil)

// NewCluster creates a cluster of n grains for the voice described by vs.
func NewCluster(vs *VoiceState, n int, sampleRate float64) *Cluster {
	if n < 1 {
		n = 1
	}
	c := &Cluster{
		vs:     vs,
		grains: make([]Grain, n),
		order:  make([]int, n),
		phasor: oscillator.NewPhasor(sampleRate),
		norm:   1 / math.Sqrt(float64(n)),
	}
	for i := range c.grains {
		c.grains[i] = NewGrain(i)
		c.order[i] = i
	}
	return c
}

// Size returns the number of grains.
func (c *Cluster) Size() int { return len(c.grains) }

// Grain returns the grain with index i.
func (c *Cluster) Grain(i int) *Grain { return &c.grains[i] }

// Order returns the chain order. The slice must not be modified.
func (c *Cluster) Order() []int { return c.order }

// Notes returns the held notes.
func (c *Cluster) Notes() *NoteHolder { return &c.notes }

// Prepare implements Engine.
func (c *Cluster) Prepare(f *Frame) {
	c.phasor.SetSampleRate(f.SampleRate)
	c.shuffle = f.Params.Shuffle
	c.corrupt = false
}

// NoteOn adds a note and repartitions the grains. The first note after
// silence arms the master trigger so a grain starts on the next tick.
func (c *Cluster) NoteOn(note, velocity uint8) {
	fresh := c.notes.Len() == 0
	c.notes.Set(note, velocity)
	c.notes.Partition(c.grains)
	if c.shuffle {
		c.Shuffle()
	}
	if fresh {
		c.phasor.Reset()
		c.ramp.Arm()
		c.primed = false
	}
}

// NoteOff removes a note and repartitions the remaining ones.
func (c *Cluster) NoteOff(note uint8) {
	if c.notes.Remove(note) {
		c.notes.Partition(c.grains)
	}
}

// ClearNotes drops every held note. Grains keep their last assignment.
func (c *Cluster) ClearNotes() {
	c.notes.Clear()
}

// Shuffle permutes the chain order.
func (c *Cluster) Shuffle() {
	c.vs.Gauss.Shuffle(c.order)
}

// Active implements Engine.
func (c *Cluster) Active() int { return c.active }

// Corrupt implements Engine.
func (c *Cluster) Corrupt() bool { return c.corrupt }

// Render implements Engine.
func (c *Cluster) Render(f *Frame, trig bool) (float64, float64) {
	p := &f.Params

	// The trigger rate re-randomizes once per trigger.
	freq := c.speed.Process(c.vs.Exp, c.prevTrig || !c.primed, p.Speed, p.SpeedRand)
	c.primed = true

	master := c.ramp.Process(c.phasor.Next(freq)) && c.notes.Len() > 0
	master = c.gate.Rising(trig) || master
	c.prevTrig = master

	var l, r float64
	active := 0
	in := master
	for _, i := range c.order {
		out := c.grains[i].Process(f, c.vs, in)
		l += out.L
		r += out.R
		if out.Busy {
			active++
		}
		in = out.Next
	}
	c.active = active

	l *= c.norm
	r *= c.norm
	if !random.Finite(l) || !random.Finite(r) {
		c.corrupt = true
		return 0, 0
	}
	return l, r
}

// Describe appends one Description per grain, in grain index order.
func (c *Cluster) Describe(dst []Description, gain float64) []Description {
	for i := range c.grains {
		dst = append(dst, c.grains[i].Describe(c.vs.ID, gain))
	}
	return dst
}

// Reset silences every grain and rewinds the master trigger. Notes and the
// random streams are left alone.
func (c *Cluster) Reset() {
	for i := range c.grains {
		c.grains[i].Reset()
	}
	c.phasor.Reset()
	c.ramp.Reset()
	c.primed = false
	c.prevTrig = false
	c.gate.Reset()
	c.active = 0
	c.corrupt = false
}
