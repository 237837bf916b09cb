package param

import "math"

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing ramps to the target over a fixed number of samples.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter.
	ExponentialSmoothing
)

// Smoother removes zipper noise from block-rate parameter changes. It is
// owned by the audio thread and is not safe for concurrent use.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64 // samples (linear) or pole coefficient (exponential)
	threshold     float64
	step          float64
	isSmoothing   bool
}

// NewSmoother creates a new parameter smoother.
// rate: samples to reach the target for linear, 0.9-0.999 for exponential.
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
	}
}

// SetTime configures the smoother to settle in roughly seconds at sampleRate.
func (s *Smoother) SetTime(sampleRate, seconds float64) {
	samples := sampleRate * seconds
	if samples < 1 {
		samples = 1
	}
	switch s.smoothingType {
	case LinearSmoothing:
		s.rate = samples
	case ExponentialSmoothing:
		// -60 dB after samples
		s.rate = math.Exp(-6.908 / samples)
	}
}

// SetTarget sets the target value for smoothing.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold {
		return
	}
	s.target = target
	s.isSmoothing = true
	if s.smoothingType == LinearSmoothing && s.rate > 0 {
		s.step = (target - s.current) / s.rate
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}
	case LinearSmoothing:
		if s.rate <= 0 {
			s.current = s.target
			s.isSmoothing = false
			break
		}
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step <= 0 && s.current <= s.target) {
			s.current = s.target
			s.isSmoothing = false
		}
	}
	return s.current
}

// Current returns the last value produced without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Reset jumps to value with no ramp.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}
