// Package param provides lock-free parameters for the granulator.
//
// Values are written by control threads (CLI, HTTP, MIDI CC) and read by the
// audio thread. Each value is a normalized float64 held in an atomic word, so
// neither side ever blocks.
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Parameter represents one automatable synth parameter.
type Parameter struct {
	ID           uint32
	Name         string // stable key used by the CLI and HTTP API
	Label        string // display name
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // normalized
	StepCount    int32
	Flags        uint32

	value atomic.Uint64 // normalized, as math.Float64bits

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsList      uint32 = 1 << 3
	IsHidden    uint32 = 1 << 4
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value (0-1). NaN is ignored.
func (p *Parameter) SetValue(value float64) {
	if math.IsNaN(value) {
		return
	}
	p.value.Store(math.Float64bits(clamp01(value)))
}

// GetPlainValue returns the current value in the parameter's own range.
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue sets the value from the parameter's own range.
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// Bool reports whether a toggle parameter is on.
func (p *Parameter) Bool() bool {
	return p.GetValue() >= 0.5
}

// FormatValue returns the formatted plain value for a normalized value.
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	if p.Unit != "" {
		return fmt.Sprintf("%.3f %s", plain, p.Unit)
	}
	return fmt.Sprintf("%.3f", plain)
}

// String formats the current value.
func (p *Parameter) String() string {
	return p.FormatValue(p.GetValue())
}

// ParseValue parses text in the parameter's plain range and returns the
// normalized value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	var (
		plain float64
		err   error
	)
	if p.parseFunc != nil {
		plain, err = p.parseFunc(str)
	} else {
		plain, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(str), p.Unit)), 64)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", p.Name)
	}
	if math.IsNaN(plain) {
		return 0, errors.Errorf("parse %s: NaN", p.Name)
	}
	return p.Normalize(plain), nil
}

// Normalize converts a plain value to normalized (0-1), snapping to steps.
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	n := clamp01((plain - p.Min) / (p.Max - p.Min))
	if p.StepCount > 0 {
		n = math.Round(n*float64(p.StepCount)) / float64(p.StepCount)
	}
	return n
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + clamp01(normalized)*(p.Max-p.Min)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
