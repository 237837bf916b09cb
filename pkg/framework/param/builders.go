package param

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		s := strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(s, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(s, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, errors.Errorf("unknown option: %s", str)
	}

	minVal, maxVal := 0.0, 0.0
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	b := New(id, name).
		Range(minVal, maxVal).
		Steps(int32(len(options) - 1)).
		Formatter(formatter, parser)
	b.param.Flags |= IsList
	if len(options) > 0 {
		b.Default(options[0].Value)
	}
	return b
}

// NormalizedParameter creates a plain 0-1 parameter shown as a percentage.
func NormalizedParameter(id uint32, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Formatter(PercentFormatter, PercentParser)
}

// SemitoneParameter creates a transposition parameter.
func SemitoneParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("st").
		Formatter(SemitoneFormatter, SemitoneParser)
}

// RateParameter creates a rate parameter (Hz)
func RateParameter(id uint32, name string, minHz, maxHz, defaultHz float64) *Builder {
	return New(id, name).
		Range(minHz, maxHz).
		Default(defaultHz).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a time parameter in seconds.
func TimeParameter(id uint32, name string, minSec, maxSec, defaultSec float64) *Builder {
	return New(id, name).
		Range(minSec, maxSec).
		Default(defaultSec).
		Unit("s").
		Formatter(TimeFormatter, TimeParser)
}

// GainParameter creates an output gain parameter (-60 to +12 dB)
func GainParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-60, 12).
		Default(0).
		Unit("dB").
		Formatter(DecibelFormatter, DecibelParser)
}

// PanParameter creates a 0-1 stereo position parameter, 0.5 centred.
func PanParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(0.5).
		Formatter(PanFormatter, PanParser)
}

// MultiplierParameter creates a ratio parameter shown as "x2.50".
func MultiplierParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Formatter(func(v float64) string {
			return fmt.Sprintf("x%.2f", v)
		}, func(s string) (float64, error) {
			return parseFloat(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "x"))
		})
}

// ToggleParameter creates an on/off switch.
func ToggleParameter(id uint32, name string, on bool) *Builder {
	b := New(id, name).Toggle()
	if on {
		b.Default(1)
	}
	return b
}
