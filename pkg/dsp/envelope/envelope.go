// Package envelope provides envelope generators for audio synthesis
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageDecay represents envelope decay phase
	StageDecay
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	minStageSeconds = 0.001
	// attackTarget overshoots 1 so the one-pole attack reaches the peak in
	// finite time instead of approaching it asymptotically.
	attackTarget  = 1.2
	silenceLevel  = 0.0001
	settleEpsilon = 0.0001
)

// ADSR implements an Attack-Decay-Sustain-Release envelope generator
type ADSR struct {
	sampleRate float64

	// Parameters (in seconds for A,D,R and 0-1 for S)
	attack  float64
	decay   float64
	sustain float64
	release float64

	// Coefficients (pre-calculated for efficiency)
	attackCoef  float64
	decayCoef   float64
	releaseCoef float64

	// State
	stage Stage
	value float64
}

// New creates a new ADSR envelope
func New(sampleRate float64) *ADSR {
	env := &ADSR{
		sampleRate: sampleRate,
		attack:     0.01,
		decay:      0.1,
		sustain:    0.7,
		release:    0.3,
		stage:      StageIdle,
	}
	env.updateCoefficients()
	return env
}

// SetSampleRate changes the rate the stage times are measured against.
func (e *ADSR) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	e.sampleRate = sampleRate
	e.updateCoefficients()
}

// SetADSR sets all parameters at once
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	if attack == e.attack && decay == e.decay && sustain == e.sustain && release == e.release {
		return
	}
	e.attack = math.Max(minStageSeconds, attack)
	e.decay = math.Max(minStageSeconds, decay)
	e.sustain = math.Max(0.0, math.Min(1.0, sustain))
	e.release = math.Max(minStageSeconds, release)
	e.updateCoefficients()
}

// ReleaseTime returns the release time in seconds.
func (e *ADSR) ReleaseTime() float64 {
	return e.release
}

// updateCoefficients recalculates the exponential coefficients
func (e *ADSR) updateCoefficients() {
	// coef = exp(-1 / (time * sampleRate))
	e.attackCoef = calcCoef(e.attack, e.sampleRate)
	e.decayCoef = calcCoef(e.decay, e.sampleRate)
	e.releaseCoef = calcCoef(e.release, e.sampleRate)
}

// calcCoef calculates exponential coefficient for a given time
func calcCoef(timeSeconds, sampleRate float64) float64 {
	if timeSeconds <= 0.0 || sampleRate <= 0 {
		return 0.0
	}
	return math.Exp(-1.0 / (timeSeconds * sampleRate))
}

// Trigger starts (or restarts) the attack from the current value.
func (e *ADSR) Trigger() {
	e.stage = StageAttack
}

// Release starts the release stage (note off)
func (e *ADSR) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
	}
}

// Reset immediately returns the envelope to idle
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0.0
}

// IsActive returns true if the envelope is generating output
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// Stage returns the current envelope stage
func (e *ADSR) Stage() Stage {
	return e.stage
}

// Value returns the most recent output without advancing.
func (e *ADSR) Value() float64 {
	return e.value
}

// Next generates the next envelope value
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.value = attackTarget + (e.value-attackTarget)*e.attackCoef
		if e.value >= 1.0 {
			e.value = 1.0
			e.stage = StageDecay
		}

	case StageDecay:
		e.value = e.sustain + (e.value-e.sustain)*e.decayCoef
		if e.value <= e.sustain+settleEpsilon {
			e.value = e.sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = e.sustain
		if e.sustain <= 0 {
			e.value = 0
			e.stage = StageIdle
		}

	case StageRelease:
		e.value *= e.releaseCoef
		if e.value <= silenceLevel {
			e.value = 0.0
			e.stage = StageIdle
		}

	case StageIdle:
		e.value = 0.0
	}

	return e.value
}
