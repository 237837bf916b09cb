// Package oscillator provides control-rate ramps used to clock grain
// triggering.
package oscillator

import "math"

// Phasor is a frequency-controlled 0..1 ramp. The frequency is passed on
// every tick so it can be modulated per sample.
type Phasor struct {
	sampleRate float64
	phase      float64
}

// NewPhasor creates a phasor at phase 0.
func NewPhasor(sampleRate float64) *Phasor {
	return &Phasor{sampleRate: sampleRate}
}

// SetSampleRate changes the rate used to convert Hz into phase increments.
func (p *Phasor) SetSampleRate(sampleRate float64) {
	if sampleRate > 0 {
		p.sampleRate = sampleRate
	}
}

// Reset moves the phasor back to phase 0.
func (p *Phasor) Reset() {
	p.phase = 0
}

// Phase returns the current phase without advancing.
func (p *Phasor) Phase() float64 {
	return p.phase
}

// Next returns the current phase and advances by freq/sampleRate.
// Non-finite or negative frequencies hold the phase.
func (p *Phasor) Next(freq float64) float64 {
	out := p.phase
	if freq > 0 && !math.IsInf(freq, 0) && p.sampleRate > 0 {
		p.phase += freq / p.sampleRate
		if p.phase >= 1 {
			p.phase -= math.Floor(p.phase)
		}
	}
	return out
}

// RampTrigger emits a single-sample pulse whenever a 0..1 ramp wraps.
type RampTrigger struct {
	prev float64
}

// Process returns true on the tick where ramp dropped by more than half a
// cycle since the previous tick.
func (r *RampTrigger) Process(ramp float64) bool {
	trig := ramp-r.prev < -0.5
	r.prev = ramp
	return trig
}

// Arm makes the next ramp value near zero fire a trigger.
func (r *RampTrigger) Arm() {
	r.prev = 1
}

// Reset clears the history without arming.
func (r *RampTrigger) Reset() {
	r.prev = 0
}
