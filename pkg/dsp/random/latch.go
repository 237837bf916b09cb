package random

// Hold is a sample-and-hold: it captures its input while trig is true and
// returns the captured value otherwise.
type Hold[T any] struct {
	value T
}

// Process returns in when trig is set, else the held value.
func (h *Hold[T]) Process(in T, trig bool) T {
	if trig {
		h.value = in
	}
	return h.value
}

// Value returns the held value without updating it.
func (h *Hold[T]) Value() T {
	return h.value
}

// Set overwrites the held value.
func (h *Hold[T]) Set(v T) {
	h.value = v
}

// Latched draws a fresh random value from D on a trigger edge and holds it
// until the next one. The generator is only consumed on triggers.
type Latched[D Distribution] struct {
	dist  D
	value float64
}

// Process draws when trig is set and returns the latched value.
func (l *Latched[D]) Process(g *Generator, trig bool, mean, spread float64) float64 {
	if trig {
		l.value = l.dist.Draw(g, mean, spread)
	}
	return l.value
}

// Value returns the latched value.
func (l *Latched[D]) Value() float64 {
	return l.value
}

// Set overwrites the latched value.
func (l *Latched[D]) Set(v float64) {
	l.value = v
}

// LatchedGaussian samples a new gaussian value only on a gate-rising edge.
type LatchedGaussian = Latched[Gaussian]

// LatchedExponential samples a new exponential value only on a gate-rising edge.
type LatchedExponential = Latched[Exponential]

// Edge detects false-to-true transitions of a gate.
type Edge struct {
	prev bool
}

// Rising returns true when gate is set and was clear on the previous call.
func (e *Edge) Rising(gate bool) bool {
	r := gate && !e.prev
	e.prev = gate
	return r
}

// Reset clears the gate history.
func (e *Edge) Reset() {
	e.prev = false
}
