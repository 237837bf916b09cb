package oscillator

import (
	"math"
	"testing"
)

func TestPhasorRange(t *testing.T) {
	p := NewPhasor(1000)
	for i := 0; i < 10000; i++ {
		if v := p.Next(37.3); v < 0 || v >= 1 {
			t.Fatalf("Phase out of range at %d: %f", i, v)
		}
	}
}

func TestRampTriggerRate(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		want int
	}{
		{"10Hz", 10, 10},
		{"25Hz", 25, 25},
		{"1Hz", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPhasor(48000)
			var trig RampTrigger
			count := 0
			for i := 0; i < 48000; i++ {
				if trig.Process(p.Next(tt.freq)) {
					count++
				}
			}
			if math.Abs(float64(count-tt.want)) > 1 {
				t.Errorf("Expected ~%d triggers, got %d", tt.want, count)
			}
		})
	}
}

func TestRampTriggerArm(t *testing.T) {
	p := NewPhasor(48000)
	var trig RampTrigger
	trig.Arm()
	if !trig.Process(p.Next(5)) {
		t.Error("Armed trigger should fire on the first tick of a fresh ramp")
	}
	if trig.Process(p.Next(5)) {
		t.Error("Trigger should be a single-sample pulse")
	}
}

func TestPhasorHoldsOnInvalidFrequency(t *testing.T) {
	p := NewPhasor(100)
	p.Next(10)
	before := p.Phase()
	for _, f := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		p.Next(f)
		if p.Phase() != before {
			t.Errorf("Frequency %v should hold the phase", f)
		}
	}
}

func TestPhasorRamp(t *testing.T) {
	p := NewPhasor(1000)
	buf := make([]float64, 1000)
	for i := range buf {
		buf[i] = p.Next(1)
	}
	if buf[0] != 0 {
		t.Errorf("Expected ramp to start at 0, got %f", buf[0])
	}
	if math.Abs(buf[500]-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 at midpoint, got %f", buf[500])
	}
}
