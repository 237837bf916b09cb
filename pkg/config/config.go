// Package config holds the command-line configuration shared by the
// granulator commands.
package config

import (
	"os"
	"strings"

	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/framework/voice"
	"github.com/justyntemme/granulator/pkg/granular"
	"github.com/justyntemme/granulator/pkg/synth"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the engine and I/O configuration.
type Config struct {
	SampleRate      float64
	BlockSize       int
	Grains          int
	Seed            uint64
	MaxGrainSeconds float64
	Align           string
	Stealing        string
	BoundsBegin     float64
	BoundsEnd       float64
	Params          []string // name=value
	LogLevel        string
	LogFile         string
	Listen          string
}

// Default returns the default configuration.
func Default() Config {
	o := synth.DefaultOptions()
	return Config{
		SampleRate:      o.SampleRate,
		BlockSize:       o.BlockSize,
		Grains:          o.Grains,
		Seed:            o.Seed,
		MaxGrainSeconds: o.MaxGrainSeconds,
		Align:           granular.AlignCenter.String(),
		Stealing:        "oldest",
		BoundsBegin:     granular.FullBounds.Begin,
		BoundsEnd:       granular.FullBounds.End,
		LogLevel:        "info",
	}
}

// BindFlags registers the configuration flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Float64VarP(&c.SampleRate, "rate", "r", c.SampleRate, "Playback sample rate in Hz")
	fs.IntVar(&c.BlockSize, "block", c.BlockSize, "Frames per processing block")
	fs.IntVarP(&c.Grains, "grains", "g", c.Grains, "Grains per voice")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Random seed")
	fs.Float64Var(&c.MaxGrainSeconds, "max-grain", c.MaxGrainSeconds, "Grain length in seconds at duration 100%")
	fs.StringVar(&c.Align, "align", c.Align, "Grain alignment (center, peak)")
	fs.StringVar(&c.Stealing, "steal", c.Stealing, "Voice stealing (oldest, quietest, highest, lowest, none)")
	fs.Float64Var(&c.BoundsBegin, "begin", c.BoundsBegin, "Start of the read region, 0-1")
	fs.Float64Var(&c.BoundsEnd, "end", c.BoundsEnd, "End of the read region, 0-1")
	fs.StringArrayVarP(&c.Params, "param", "p", c.Params, "Parameter override name=value (repeatable)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error, off)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to this file instead of stderr")
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := c.options(nil).Validate(); err != nil {
		return err
	}
	if _, err := granular.ParseAlignMode(c.Align); err != nil {
		return err
	}
	if _, err := ParseStealing(c.Stealing); err != nil {
		return err
	}
	if err := c.Bounds().Validate(); err != nil {
		return err
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Overrides(); err != nil {
		return err
	}
	return nil
}

// Bounds returns the configured read region.
func (c Config) Bounds() granular.ReadBounds {
	return granular.ReadBounds{Begin: c.BoundsBegin, End: c.BoundsEnd}
}

func (c Config) options(sink debug.Sink) synth.Options {
	o := synth.DefaultOptions()
	o.SampleRate = c.SampleRate
	o.BlockSize = c.BlockSize
	o.Grains = c.Grains
	o.Seed = c.Seed
	o.MaxGrainSeconds = c.MaxGrainSeconds
	o.Align, _ = granular.ParseAlignMode(c.Align)
	o.Sink = sink
	return o
}

// NewSynth builds a synthesizer from the configuration and applies the
// read bounds, stealing mode and parameter overrides.
func (c Config) NewSynth(sink debug.Sink) (*synth.Synthesizer, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	s, err := synth.New(c.options(sink))
	if err != nil {
		return nil, err
	}
	if err := s.SetReadBounds(c.Bounds()); err != nil {
		return nil, err
	}
	mode, _ := ParseStealing(c.Stealing)
	s.Allocator().SetStealingMode(mode)

	overrides, _ := c.Overrides()
	for _, o := range overrides {
		if err := s.Params().Set(o.Name, o.Value); err != nil {
			return nil, errors.Wrapf(err, "--param %s", o.Name)
		}
	}
	return s, nil
}

// Logger builds the logger the configuration asks for. The returned closer
// is nil when logging to stderr.
func (c Config) Logger() (*debug.Logger, func() error, error) {
	level, err := debug.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if c.LogFile == "" {
		l := debug.New(os.Stderr, "granulator", debug.DefaultFlags)
		l.SetLevel(level)
		return l, nil, nil
	}
	path, err := ExpandPath(c.LogFile)
	if err != nil {
		return nil, nil, err
	}
	l, closer, err := debug.NewFileLogger(path, "granulator", debug.DefaultFlags)
	if err != nil {
		return nil, nil, err
	}
	l.SetLevel(level)
	return l, closer.Close, nil
}

// Override is one --param flag.
type Override struct {
	Name  string
	Value string
}

// Overrides parses the --param flags.
func (c Config) Overrides() ([]Override, error) {
	out := make([]Override, 0, len(c.Params))
	for _, p := range c.Params {
		o, err := ParseOverride(p)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ParseOverride parses "name=value".
func ParseOverride(s string) (Override, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Override{}, errors.Errorf("expected name=value, got %q", s)
	}
	return Override{Name: strings.ToLower(name), Value: strings.TrimSpace(value)}, nil
}

// ParseStealing parses a voice stealing mode name.
func ParseStealing(s string) (voice.StealingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oldest", "":
		return voice.StealOldest, nil
	case "quietest":
		return voice.StealQuietest, nil
	case "highest":
		return voice.StealHighest, nil
	case "lowest":
		return voice.StealLowest, nil
	case "none":
		return voice.StealNone, nil
	}
	return voice.StealOldest, errors.Errorf("unknown stealing mode %q", s)
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrapf(err, "expand %s", path)
	}
	return os.ExpandEnv(p), nil
}
