package granular

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/granulator/pkg/dsp/random"
	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/sample"
)

// DefaultMaxGrainSeconds is the grain length at Duration = 1.
const DefaultMaxGrainSeconds = 1.0

// Shared is the state every voice of one synthesizer reads: the sample
// buffer, the playback rate, the read bounds, the alignment mode and the log
// sink. Setters may be called from any goroutine; the audio thread picks the
// values up at the next block through Frame.
type Shared struct {
	Buffers sample.Store
	Sink    debug.Sink

	rate     atomic.Uint64
	maxGrain atomic.Uint64
	align    atomic.Int32
	bounds   atomic.Pointer[ReadBounds]
}

// NewShared creates shared state at sampleRate with full read bounds.
func NewShared(sampleRate float64, sink debug.Sink) *Shared {
	if sink == nil {
		sink = debug.Discard
	}
	s := &Shared{Sink: sink}
	s.SetSampleRate(sampleRate)
	s.SetMaxGrainSeconds(DefaultMaxGrainSeconds)
	full := FullBounds
	s.bounds.Store(&full)
	return s
}

// SetSampleRate sets the playback rate. Invalid rates are ignored.
func (s *Shared) SetSampleRate(rate float64) bool {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return false
	}
	s.rate.Store(math.Float64bits(rate))
	return true
}

// SampleRate returns the playback rate.
func (s *Shared) SampleRate() float64 {
	return math.Float64frombits(s.rate.Load())
}

// SetMaxGrainSeconds sets the grain length at Duration = 1.
func (s *Shared) SetMaxGrainSeconds(sec float64) {
	if sec > 0 && !math.IsInf(sec, 0) {
		s.maxGrain.Store(math.Float64bits(sec))
	}
}

// MaxGrainSeconds returns the grain length at Duration = 1.
func (s *Shared) MaxGrainSeconds() float64 {
	return math.Float64frombits(s.maxGrain.Load())
}

// SetAlign sets the alignment mode.
func (s *Shared) SetAlign(m AlignMode) {
	s.align.Store(int32(m))
}

// Align returns the alignment mode.
func (s *Shared) Align() AlignMode {
	return AlignMode(s.align.Load())
}

// SetBounds publishes new read bounds.
func (s *Shared) SetBounds(b ReadBounds) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.bounds.Store(&b)
	return nil
}

// Bounds returns the published read bounds.
func (s *Shared) Bounds() ReadBounds {
	return *s.bounds.Load()
}

// Frame captures everything a block needs. The buffer pointer is loaded
// exactly once here.
func (s *Shared) Frame(p Params) Frame {
	rate := s.SampleRate()
	f := Frame{
		Params:          p.Sanitize(),
		SampleRate:      rate,
		BufferRate:      rate,
		Bounds:          s.Bounds(),
		Align:           s.Align(),
		MaxGrainSamples: s.MaxGrainSeconds() * rate,
	}
	if b := s.Buffers.Load(); b != nil {
		f.Buffer = b
		f.Data = b.Data
		f.BufferRate = b.Rate
	}
	return f
}

// Frame is the read-only per-block view shared by every grain.
type Frame struct {
	Params          Params
	Buffer          *sample.Buffer
	Data            []float32
	SampleRate      float64 // playback
	BufferRate      float64 // native rate of Data
	Bounds          ReadBounds
	Align           AlignMode
	MaxGrainSamples float64
}

// rateRatio converts buffer samples into playback samples.
func (f *Frame) rateRatio() float64 {
	if f.SampleRate <= 0 || f.BufferRate <= 0 {
		return 1
	}
	return f.BufferRate / f.SampleRate
}

// expStreamOffset separates a voice's exponential stream from its gaussian one.
const expStreamOffset = 0x5851f42d4c957f2d

// VoiceState is the per-voice randomness: two independent streams, seeded
// from the synth seed plus the voice ID.
type VoiceState struct {
	ID    int
	Gauss *random.Generator
	Exp   *random.Generator
}

// NewVoiceState seeds both streams for voice id.
func NewVoiceState(id int, seed uint64) *VoiceState {
	s := seed + uint64(id)
	return &VoiceState{
		ID:    id,
		Gauss: random.New(s),
		Exp:   random.New(s ^ expStreamOffset),
	}
}
