// Package synth is the polyphonic granular synthesizer: a fixed pool of
// voices, each a grain cluster under an amplitude envelope, sharing one
// sample buffer and one parameter store.
//
// ProcessBlock runs on the audio thread. Everything else may be called from
// any goroutine: notes travel through a bounded inbox, parameters and the
// sample buffer are atomics picked up at the next block.
package synth

import (
	"math"

	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/framework/param"
	"github.com/justyntemme/granulator/pkg/framework/voice"
	"github.com/justyntemme/granulator/pkg/granular"
	"github.com/justyntemme/granulator/pkg/midi"
	"github.com/justyntemme/granulator/pkg/sample"
	"github.com/pkg/errors"
)

const (
	// NumVoices is the size of the voice pool.
	NumVoices = 8
	// DefaultGrains is the number of grains per voice.
	DefaultGrains = 16
	// MaxGrains bounds the grains per voice.
	MaxGrains          = 256
	DefaultBlockSize   = 512
	DefaultInboxSize   = 256
	DefaultSeed uint64 = 1

	gainSmoothSeconds = 0.02
	minGainDB         = -60.0
)

// Options configure a Synthesizer.
type Options struct {
	SampleRate      float64
	Grains          int // per voice
	Seed            uint64
	BlockSize       int // largest block rendered without growing buffers
	InboxSize       int
	MaxGrainSeconds float64
	Align           granular.AlignMode
	Sink            debug.Sink
}

// DefaultOptions returns options for 48 kHz playback.
func DefaultOptions() Options {
	return Options{
		SampleRate:      48000,
		Grains:          DefaultGrains,
		Seed:            DefaultSeed,
		BlockSize:       DefaultBlockSize,
		InboxSize:       DefaultInboxSize,
		MaxGrainSeconds: granular.DefaultMaxGrainSeconds,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if !(o.SampleRate > 0) || math.IsInf(o.SampleRate, 0) {
		return errors.Wrapf(sample.ErrInvalidRate, "%v", o.SampleRate)
	}
	if o.Grains < 1 || o.Grains > MaxGrains {
		return errors.Errorf("grains per voice must be in [1, %d], got %d", MaxGrains, o.Grains)
	}
	if o.BlockSize < 1 {
		return errors.Errorf("block size must be positive, got %d", o.BlockSize)
	}
	if o.InboxSize < 1 {
		return errors.Errorf("inbox size must be positive, got %d", o.InboxSize)
	}
	if !(o.MaxGrainSeconds > 0) || math.IsInf(o.MaxGrainSeconds, 0) {
		return errors.Errorf("max grain length must be positive, got %v", o.MaxGrainSeconds)
	}
	return nil
}

type command struct {
	event midi.Event
	// stop silences the note's voice without a tail-off
	stop bool
}

// Synthesizer owns the voices, the shared buffer and the parameters.
type Synthesizer struct {
	opts   Options
	shared *granular.Shared
	params *Parameters
	voices []*Voice
	alloc  *voice.Allocator
	inbox  chan command
	gain   *param.Smoother

	// audio thread state
	frame  granular.Frame
	buffer *sample.Buffer
	rate   float64
	clock  int64
	desc   []granular.Description

	snapshot *Snapshot
}

// New creates a synthesizer. The voice pool and every buffer the audio
// thread uses are allocated here.
func New(opts Options) (*Synthesizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "synth options")
	}

	shared := granular.NewShared(opts.SampleRate, opts.Sink)
	shared.SetMaxGrainSeconds(opts.MaxGrainSeconds)
	shared.SetAlign(opts.Align)

	s := &Synthesizer{
		opts:     opts,
		shared:   shared,
		params:   NewParameters(),
		voices:   make([]*Voice, NumVoices),
		inbox:    make(chan command, opts.InboxSize),
		gain:     param.NewSmoother(param.LinearSmoothing, 1),
		rate:     opts.SampleRate,
		desc:     make([]granular.Description, 0, NumVoices*opts.Grains),
		snapshot: NewSnapshot(NumVoices * opts.Grains),
	}

	pool := make([]voice.Voice, NumVoices)
	for i := range s.voices {
		s.voices[i] = NewVoice(i, shared, opts.Grains, opts.Seed, opts.BlockSize)
		pool[i] = s.voices[i]
	}
	s.alloc = voice.NewAllocator(pool)
	s.alloc.OnSteal(s.stolen)

	s.gain.SetTime(opts.SampleRate, gainSmoothSeconds)
	s.gain.Reset(dbToGain(s.params.GainDB()))
	return s, nil
}

// Shared returns the state shared by every voice.
func (s *Synthesizer) Shared() *granular.Shared { return s.shared }

// Params returns the parameter store.
func (s *Synthesizer) Params() *Parameters { return s.params }

// Allocator returns the voice allocator. It must only be configured while
// no block is being processed.
func (s *Synthesizer) Allocator() *voice.Allocator { return s.alloc }

// Voices returns the voice pool.
func (s *Synthesizer) Voices() []*Voice { return s.voices }

// Options returns the options the synthesizer was built with.
func (s *Synthesizer) Options() Options { return s.opts }

// LoadBuffer publishes b as the sample every grain reads. Voices pick it up
// at the start of the next block.
func (s *Synthesizer) LoadBuffer(b *sample.Buffer) error {
	if b == nil || b.Len() == 0 {
		return sample.ErrEmptyBuffer
	}
	if !s.shared.Buffers.Changed(b) {
		return nil
	}
	s.shared.Buffers.Swap(b)
	return nil
}

// LoadFile decodes a WAV or MP3 file and publishes it.
func (s *Synthesizer) LoadFile(path string) (*sample.Buffer, error) {
	b, err := sample.Load(path)
	if err != nil {
		return nil, err
	}
	return b, s.LoadBuffer(b)
}

// SetReadBounds restricts grains to a region of the buffer.
func (s *Synthesizer) SetReadBounds(b granular.ReadBounds) error {
	return s.shared.SetBounds(b)
}

// SetSampleRate changes the playback rate from the next block on.
func (s *Synthesizer) SetSampleRate(rate float64) error {
	if !s.shared.SetSampleRate(rate) {
		return errors.Wrapf(sample.ErrInvalidRate, "%v", rate)
	}
	return nil
}

// Post queues e for the start of the next block. It never blocks and
// reports false when the inbox is full.
func (s *Synthesizer) Post(e midi.Event) bool {
	return s.send(command{event: e})
}

// NoteOn queues a note-on.
func (s *Synthesizer) NoteOn(note, velocity uint8) bool {
	return s.Post(midi.NoteOn(0, note, velocity))
}

// NoteOff queues a note-off. Without tailOff the voice stops at once.
func (s *Synthesizer) NoteOff(note uint8, tailOff bool) bool {
	return s.send(command{event: midi.NoteOff(0, note), stop: !tailOff})
}

// AllNotesOff queues a release of every held note.
func (s *Synthesizer) AllNotesOff() bool {
	return s.Post(midi.ControlChangeEvent{Controller: midi.CCAllNotesOff})
}

func (s *Synthesizer) send(c command) bool {
	select {
	case s.inbox <- c:
		return true
	default:
		s.shared.Sink.Post(debug.Record{Level: debug.LogLevelWarn, Code: debug.CodeInboxFull, Voice: -1})
		return false
	}
}

func (s *Synthesizer) apply(c command) {
	if c.stop {
		if off, ok := c.event.(midi.NoteOffEvent); ok {
			s.alloc.StopNote(off.NoteNumber)
			return
		}
	}
	s.alloc.ProcessEvent(c.event)
}

func (s *Synthesizer) stolen(v int, note uint8) {
	s.shared.Sink.Post(debug.Record{
		Level: debug.LogLevelInfo,
		Code:  debug.CodeVoiceStolen,
		Voice: int32(v),
		Frame: s.clock,
		Value: float64(note),
	})
}

// ProcessBlock renders one block into left and right, overwriting them.
// Queued notes apply at the first sample. events are applied at their
// sample offsets relative to origin; they must be sorted by offset.
func (s *Synthesizer) ProcessBlock(left, right []float32, events []midi.Event, origin int64) {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]
	clear(left)
	clear(right)

	s.beginBlock(n)

drain:
	for {
		select {
		case c := <-s.inbox:
			s.apply(c)
		default:
			break drain
		}
	}

	pos := 0
	for _, e := range events {
		at := int(int64(e.SampleOffset()) - origin)
		at = max(pos, min(at, n))
		if at > pos {
			s.segment(left[pos:at], right[pos:at], pos)
			pos = at
		}
		s.alloc.ProcessEvent(e)
	}
	if pos < n {
		s.segment(left[pos:], right[pos:], pos)
	}
	for _, v := range s.voices {
		v.mix(left, right)
	}

	for i := range left {
		g := float32(s.gain.Next())
		left[i] *= g
		right[i] *= g
	}

	s.desc = s.desc[:0]
	for _, v := range s.voices {
		s.desc = v.Describe(s.desc)
	}
	s.clock += int64(n)
	s.snapshot.Publish(s.desc, s.clock, s.alloc.GetActiveVoiceCount())
}

// segment renders the active voices for the frames at pos in the block.
func (s *Synthesizer) segment(left, right []float32, pos int) {
	for _, v := range s.voices {
		v.seek(pos)
	}
	s.alloc.Process(left, right)
}

// beginBlock picks up everything control threads may have changed.
func (s *Synthesizer) beginBlock(n int) {
	if rate := s.shared.SampleRate(); rate != s.rate {
		s.rate = rate
		s.gain.SetTime(rate, gainSmoothSeconds)
		for _, v := range s.voices {
			v.ampEnv.SetSampleRate(rate)
		}
		s.shared.Sink.Post(debug.Record{Level: debug.LogLevelInfo, Code: debug.CodeRateChange, Voice: -1, Frame: s.clock, Value: rate})
	}

	s.frame = s.shared.Frame(s.params.Grain())
	if s.frame.Buffer != s.buffer {
		s.buffer = s.frame.Buffer
		s.shared.Sink.Post(debug.Record{Level: debug.LogLevelInfo, Code: debug.CodeBufferSwap, Voice: -1, Frame: s.clock, Value: s.buffer.Duration()})
	}

	a, d, sus, r := s.params.Envelope()
	for _, v := range s.voices {
		v.prepare(&s.frame, s.clock, n, a, d, sus, r)
	}
	s.gain.SetTarget(dbToGain(s.params.GainDB()))
}

// Render drives the synthesizer offline for frames samples, feeding events
// from seq at their absolute sample offsets. fn receives every block; the
// slices are reused between calls.
func (s *Synthesizer) Render(seq *midi.Sequence, frames int64, fn func(left, right []float32) error) error {
	block := s.opts.BlockSize
	left := make([]float32, block)
	right := make([]float32, block)

	for pos := int64(0); pos < frames; {
		n := int(min(int64(block), frames-pos))
		var events []midi.Event
		if seq != nil && pos <= math.MaxInt32 {
			events = seq.Window(int32(pos), int32(min(pos+int64(n), math.MaxInt32)))
		}
		s.ProcessBlock(left[:n], right[:n], events, pos)
		if err := fn(left[:n], right[:n]); err != nil {
			return errors.Wrapf(err, "render at frame %d", pos)
		}
		pos += int64(n)
	}
	return nil
}

// Descriptions appends the grain descriptions of the last published block
// to dst. Safe to call from any goroutine.
func (s *Synthesizer) Descriptions(dst []granular.Description) ([]granular.Description, Stats) {
	return s.snapshot.Read(dst)
}

// Snapshot returns the published grain descriptions.
func (s *Synthesizer) Snapshot() *Snapshot { return s.snapshot }

// Clock returns the number of frames rendered so far. Audio thread only.
func (s *Synthesizer) Clock() int64 { return s.clock }

// ActiveVoices returns the number of sounding voices. Audio thread only;
// other goroutines read Stats.ActiveVoices from Descriptions.
func (s *Synthesizer) ActiveVoices() int { return s.alloc.GetActiveVoiceCount() }

func dbToGain(db float64) float64 {
	if db <= minGainDB {
		return 0
	}
	return math.Pow(10, db/20)
}
