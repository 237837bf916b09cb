package synth

import (
	"math"
	"slices"
	"testing"

	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/granular"
	"github.com/justyntemme/granulator/pkg/midi"
	"github.com/justyntemme/granulator/pkg/sample"
)

// recordSink keeps every record; test use only.
type recordSink struct {
	records []debug.Record
}

func (s *recordSink) Post(r debug.Record) { s.records = append(s.records, r) }

func (s *recordSink) count(code debug.Code) int {
	n := 0
	for _, r := range s.records {
		if r.Code == code {
			n++
		}
	}
	return n
}

func constData(n int, v float32) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return data
}

func newTestSynth(t testing.TB, sink debug.Sink) *Synthesizer {
	t.Helper()
	opts := DefaultOptions()
	opts.Grains = 8
	opts.Sink = sink
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	buf, err := sample.NewBuffer("const", constData(48000, 0.5), 48000)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if err := s.LoadBuffer(buf); err != nil {
		t.Fatalf("LoadBuffer failed: %v", err)
	}
	return s
}

func renderBlocks(s *Synthesizer, blocks int) (peak float64, finite bool) {
	left := make([]float32, DefaultBlockSize)
	right := make([]float32, DefaultBlockSize)
	finite = true
	for i := 0; i < blocks; i++ {
		s.ProcessBlock(left, right, nil, 0)
		for j := range left {
			l, r := float64(left[j]), float64(right[j])
			if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(r) || math.IsInf(r, 0) {
				finite = false
			}
			peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
		}
	}
	return peak, finite
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"rate", func(o *Options) { o.SampleRate = 0 }},
		{"grains", func(o *Options) { o.Grains = 0 }},
		{"too many grains", func(o *Options) { o.Grains = MaxGrains + 1 }},
		{"block", func(o *Options) { o.BlockSize = 0 }},
		{"inbox", func(o *Options) { o.InboxSize = 0 }},
		{"grain length", func(o *Options) { o.MaxGrainSeconds = math.NaN() }},
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("Default options should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			if err := o.Validate(); err == nil {
				t.Error("Expected validation error")
			}
			if _, err := New(o); err == nil {
				t.Error("New should reject invalid options")
			}
		})
	}
}

func TestNoteLifecycle(t *testing.T) {
	s := newTestSynth(t, nil)
	if err := s.Params().Set("release", "10ms"); err != nil {
		t.Fatalf("Set release failed: %v", err)
	}

	s.NoteOn(60, 100)
	peak, finite := renderBlocks(s, 20)
	if !finite {
		t.Fatal("Output contains non-finite samples")
	}
	if peak == 0 {
		t.Fatal("Expected sound after note-on")
	}
	if s.ActiveVoices() != 1 {
		t.Errorf("Expected 1 active voice, got %d", s.ActiveVoices())
	}

	s.NoteOff(60, true)
	renderBlocks(s, 1)
	if s.ActiveVoices() != 1 {
		t.Error("Voice should still be releasing")
	}

	renderBlocks(s, 100)
	if s.ActiveVoices() != 0 {
		t.Errorf("Voice should finish its release, %d still active", s.ActiveVoices())
	}
	if peak, _ := renderBlocks(s, 2); peak != 0 {
		t.Errorf("Expected silence after release, peak %f", peak)
	}
}

func TestNoteOffWithoutTailOff(t *testing.T) {
	s := newTestSynth(t, nil)
	s.NoteOn(60, 100)
	renderBlocks(s, 4)

	s.NoteOff(60, false)
	peak, _ := renderBlocks(s, 1)
	if s.ActiveVoices() != 0 {
		t.Errorf("Expected the voice to stop at once, %d active", s.ActiveVoices())
	}
	if peak != 0 {
		t.Errorf("Stopped voice should be silent, peak %f", peak)
	}
}

func TestSampleAccurateEvents(t *testing.T) {
	s := newTestSynth(t, nil)
	left := make([]float32, 512)
	right := make([]float32, 512)

	events := []midi.Event{midi.NoteOn(1100, 60, 127)}
	s.ProcessBlock(left, right, events, 1000)

	for i := 0; i < 100; i++ {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("Expected silence before the event, sample %d = %f", i, left[i])
		}
	}
	if left[100] == 0 || right[100] == 0 {
		t.Error("Expected sound from the event's sample on")
	}
}

func TestVoiceStealing(t *testing.T) {
	sink := &recordSink{}
	s := newTestSynth(t, sink)
	for n := 0; n < NumVoices+1; n++ {
		s.NoteOn(uint8(48+n), 100)
	}
	renderBlocks(s, 1)

	if s.ActiveVoices() != NumVoices {
		t.Errorf("Expected %d active voices, got %d", NumVoices, s.ActiveVoices())
	}
	if got := sink.count(debug.CodeVoiceStolen); got != 1 {
		t.Errorf("Expected one steal record, got %d", got)
	}
	held := 0
	for n := 0; n < NumVoices+1; n++ {
		if s.Allocator().VoiceForNote(uint8(48+n)) != -1 {
			held++
		}
	}
	if held != NumVoices {
		t.Errorf("Expected %d notes mapped to voices, got %d", NumVoices, held)
	}
	if s.Allocator().VoiceForNote(uint8(48+NumVoices)) == -1 {
		t.Error("The newest note should have taken a voice")
	}
}

func TestNonFiniteBufferIsSilenced(t *testing.T) {
	sink := &recordSink{}
	s := newTestSynth(t, sink)
	bad := &sample.Buffer{Name: "bad", Data: constData(1000, float32(math.NaN())), Rate: 48000, Hash: 1}
	s.Shared().Buffers.Swap(bad)

	s.NoteOn(60, 100)
	peak, finite := renderBlocks(s, 3)
	if !finite || peak != 0 {
		t.Errorf("Expected silent finite output, peak %f finite %v", peak, finite)
	}
	if got := sink.count(debug.CodeNonFinite); got != 3 {
		t.Errorf("Expected one non-finite record per block, got %d", got)
	}
}

// A grain at position 0.5 with duration 0.1 reads from 21600 upwards, so
// NaNs from 21900 reach it around frame 298: after the split at 256.
func TestNonFiniteDropsWholeSplitBlock(t *testing.T) {
	tests := []struct {
		name    string
		corrupt bool
	}{
		{"clean", false},
		{"nan after split", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordSink{}
			s := newTestSynth(t, sink)
			if err := s.Params().SetPlain("position_rand", 0); err != nil {
				t.Fatal(err)
			}
			data := constData(48000, 0.5)
			if tt.corrupt {
				for i := 21900; i < 22100; i++ {
					data[i] = float32(math.NaN())
				}
			}
			s.Shared().Buffers.Swap(&sample.Buffer{Name: "split", Data: data, Rate: 48000, Hash: 7})

			s.NoteOn(60, 100)
			left := make([]float32, 512)
			right := make([]float32, 512)
			// note 10 is not held; the event only splits the block
			s.ProcessBlock(left, right, []midi.Event{midi.NoteOff(256, 10)}, 0)

			nonzero := 0
			for i := range left {
				if left[i] != 0 || right[i] != 0 {
					nonzero++
				}
			}
			records := sink.count(debug.CodeNonFinite)
			if !tt.corrupt {
				if nonzero == 0 || records != 0 {
					t.Fatalf("Expected sound before the split, got %d nonzero samples, %d records", nonzero, records)
				}
				return
			}
			if records != 1 {
				t.Errorf("Expected one non-finite record, got %d", records)
			}
			if nonzero != 0 {
				t.Errorf("Expected the whole block silenced, %d samples leaked", nonzero)
			}
		})
	}
}

func TestBufferSwapRecorded(t *testing.T) {
	sink := &recordSink{}
	s := newTestSynth(t, sink)
	renderBlocks(s, 1)

	buf, _ := sample.NewBuffer("other", constData(100, 0.25), 44100)
	if err := s.LoadBuffer(buf); err != nil {
		t.Fatalf("LoadBuffer failed: %v", err)
	}
	renderBlocks(s, 2)

	if got := sink.count(debug.CodeBufferSwap); got != 2 {
		t.Errorf("Expected a record for each published buffer, got %d", got)
	}
	if err := s.LoadBuffer(nil); err == nil {
		t.Error("Expected an error for a nil buffer")
	}
}

func TestInboxFull(t *testing.T) {
	sink := &recordSink{}
	opts := DefaultOptions()
	opts.InboxSize = 2
	opts.Sink = sink
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !s.NoteOn(60, 100) || !s.NoteOn(62, 100) {
		t.Fatal("Inbox should accept two notes")
	}
	if s.NoteOn(64, 100) {
		t.Error("Full inbox should reject the note")
	}
	if sink.count(debug.CodeInboxFull) != 1 {
		t.Error("Expected an inbox-full record")
	}

	renderBlocks(s, 1)
	if !s.NoteOn(64, 100) {
		t.Error("Inbox should drain at the block start")
	}
}

func TestDescriptions(t *testing.T) {
	s := newTestSynth(t, nil)
	s.NoteOn(60, 100)
	renderBlocks(s, 4)

	desc, stats := s.Descriptions(nil)
	if len(desc) != NumVoices*8 {
		t.Fatalf("Expected %d descriptions, got %d", NumVoices*8, len(desc))
	}
	if stats.ActiveVoices != 1 || stats.Frame != 4*DefaultBlockSize {
		t.Errorf("Unexpected stats %+v", stats)
	}

	busyVoices := map[int]bool{}
	for _, d := range desc {
		if d.Window < 0 || d.Window > 1 {
			t.Errorf("Window out of range: %+v", d)
		}
		if d.Busy {
			busyVoices[d.Voice] = true
		} else if d.Window != 0 {
			t.Errorf("Idle grain with a window: %+v", d)
		}
	}
	if len(busyVoices) != 1 {
		t.Errorf("Expected busy grains in exactly one voice, got %v", busyVoices)
	}
}

func TestSnapshotSkipsWhenLocked(t *testing.T) {
	snap := NewSnapshot(4)
	if !snap.Publish([]granular.Description{{Grain: 1}}, 10, 1) {
		t.Fatal("Publish should succeed when unlocked")
	}

	snap.mu.Lock()
	ok := snap.Publish([]granular.Description{{Grain: 2}}, 20, 2)
	snap.mu.Unlock()
	if ok {
		t.Error("Publish should not wait for a reader")
	}

	desc, stats := snap.Read(nil)
	if len(desc) != 1 || desc[0].Grain != 1 || stats.Frame != 10 || stats.Seq != 1 {
		t.Errorf("Expected the first publish to survive, got %v %+v", desc, stats)
	}
}

func TestRenderSequence(t *testing.T) {
	s := newTestSynth(t, nil)
	seq := midi.NewSequence([]midi.Event{
		midi.NoteOn(1000, 60, 100),
		midi.NoteOff(20000, 60),
	})

	var frames int64
	var peak float64
	err := s.Render(seq, 30000, func(left, right []float32) error {
		frames += int64(len(left))
		for _, v := range left {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if frames != 30000 {
		t.Errorf("Expected 30000 frames, got %d", frames)
	}
	if peak == 0 {
		t.Error("Expected sound from the sequence")
	}
	if s.Clock() != 30000 {
		t.Errorf("Expected clock 30000, got %d", s.Clock())
	}
}

func TestDeterministicRender(t *testing.T) {
	render := func() []float32 {
		s := newTestSynth(t, nil)
		s.Params().SetGrain(func() granular.Params {
			p := granular.DefaultParams()
			p.SpeedRand = 0.5
			p.TransposeRand = 3
			return p
		}())
		s.NoteOn(60, 100)
		s.NoteOn(67, 90)
		var out []float32
		s.Render(nil, 8192, func(left, right []float32) error {
			out = append(out, left...)
			out = append(out, right...)
			return nil
		})
		return out
	}

	if !slices.Equal(render(), render()) {
		t.Error("Same seed should render identical output")
	}
}

func TestSetters(t *testing.T) {
	s := newTestSynth(t, nil)
	if err := s.SetSampleRate(-1); err == nil {
		t.Error("Expected an error for a negative rate")
	}
	if err := s.SetReadBounds(granular.ReadBounds{Begin: 0.5, End: 0.5}); err == nil {
		t.Error("Expected an error for empty bounds")
	}
	if err := s.SetReadBounds(granular.ReadBounds{Begin: 0.25, End: 0.5}); err != nil {
		t.Errorf("SetReadBounds failed: %v", err)
	}
}

func TestSampleRateChange(t *testing.T) {
	sink := &recordSink{}
	s := newTestSynth(t, sink)
	if err := s.SetSampleRate(96000); err != nil {
		t.Fatalf("SetSampleRate failed: %v", err)
	}
	s.NoteOn(60, 100)
	_, finite := renderBlocks(s, 2)
	if !finite {
		t.Error("Output should stay finite across a rate change")
	}
	if sink.count(debug.CodeRateChange) != 1 {
		t.Error("Expected a rate change record")
	}
}

func TestProcessBlockDoesNotAllocate(t *testing.T) {
	s := newTestSynth(t, nil)
	s.NoteOn(60, 100)
	s.NoteOn(64, 100)
	left := make([]float32, DefaultBlockSize)
	right := make([]float32, DefaultBlockSize)
	s.ProcessBlock(left, right, nil, 0)

	allocs := testing.AllocsPerRun(50, func() {
		s.ProcessBlock(left, right, nil, 0)
	})
	if allocs != 0 {
		t.Errorf("ProcessBlock allocated %.1f times per block", allocs)
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	s := newTestSynth(b, nil)
	for n := uint8(0); n < NumVoices; n++ {
		s.NoteOn(48+n*3, 100)
	}
	left := make([]float32, DefaultBlockSize)
	right := make([]float32, DefaultBlockSize)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ProcessBlock(left, right, nil, 0)
	}
}
