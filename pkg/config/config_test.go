package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/justyntemme/granulator/pkg/framework/voice"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"rate", func(c *Config) { c.SampleRate = -1 }},
		{"grains", func(c *Config) { c.Grains = 0 }},
		{"align", func(c *Config) { c.Align = "sideways" }},
		{"steal", func(c *Config) { c.Stealing = "random" }},
		{"bounds", func(c *Config) { c.BoundsBegin, c.BoundsEnd = 0.8, 0.2 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"param", func(c *Config) { c.Params = []string{"pan"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestBindFlags(t *testing.T) {
	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)

	args := []string{"--rate", "44100", "-g", "32", "--align", "peak", "-p", "pan=0.75", "--param", "speed=20 Hz", "--begin", "0.25"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.SampleRate != 44100 || c.Grains != 32 || c.Align != "peak" || c.BoundsBegin != 0.25 {
		t.Errorf("Flags not applied: %+v", c)
	}
	if len(c.Params) != 2 {
		t.Fatalf("Expected 2 overrides, got %v", c.Params)
	}

	s, err := c.NewSynth(nil)
	if err != nil {
		t.Fatalf("NewSynth failed: %v", err)
	}
	g := s.Params().Grain()
	if g.Pan != 0.75 {
		t.Errorf("Expected pan 0.75, got %v", g.Pan)
	}
	if s.Shared().Bounds().Begin != 0.25 {
		t.Errorf("Expected bounds to start at 0.25, got %v", s.Shared().Bounds())
	}
	if s.Options().Grains != 32 {
		t.Errorf("Expected 32 grains, got %d", s.Options().Grains)
	}
}

func TestNewSynthRejectsUnknownParam(t *testing.T) {
	c := Default()
	c.Params = []string{"wobble=3"}
	if _, err := c.NewSynth(nil); err == nil {
		t.Error("Expected an error for an unknown parameter")
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in      string
		want    Override
		wantErr bool
	}{
		{"pan=0.75", Override{"pan", "0.75"}, false},
		{" Speed = 20 Hz ", Override{"speed", "20 Hz"}, false},
		{"release=", Override{"release", ""}, false},
		{"=3", Override{}, true},
		{"pan", Override{}, true},
	}
	for _, tt := range tests {
		got, err := ParseOverride(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOverride(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOverride(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseStealing(t *testing.T) {
	tests := map[string]voice.StealingMode{
		"oldest":   voice.StealOldest,
		"Quietest": voice.StealQuietest,
		"highest":  voice.StealHighest,
		"lowest":   voice.StealLowest,
		"none":     voice.StealNone,
	}
	for in, want := range tests {
		got, err := ParseStealing(in)
		if err != nil || got != want {
			t.Errorf("ParseStealing(%q) = %v, %v", in, got, err)
		}
	}
}

func TestExpandPath(t *testing.T) {
	homedir.DisableCache = true
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GRAIN_DIR", "samples")

	got, err := ExpandPath("~/$GRAIN_DIR/a.wav")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if want := filepath.Join(home, "samples", "a.wav"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestLoggerToFile(t *testing.T) {
	c := Default()
	c.LogFile = filepath.Join(t.TempDir(), "logs", "granulator.log")
	c.LogLevel = "debug"

	l, closeFn, err := c.Logger()
	if err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
	l.Debug("hello %d", 1)
	if err := closeFn(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(c.LogFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected a log line in the file")
	}
}
