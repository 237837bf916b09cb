package midi

import (
	"math"
	"testing"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOn(100, 60, 64)

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}
	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestWithOffset(t *testing.T) {
	tests := []Event{
		NoteOn(5, 60, 100),
		NoteOff(5, 60),
		ControlChangeEvent{BaseEvent: BaseEvent{Offset: 5}, Controller: CCSustain, Value: 127},
	}
	for _, e := range tests {
		moved := WithOffset(e, 42)
		if moved.SampleOffset() != 42 {
			t.Errorf("%s: expected offset 42, got %d", e, moved.SampleOffset())
		}
		if moved.Type() != e.Type() {
			t.Errorf("%s: type changed to %v", e, moved.Type())
		}
	}
}

func TestSemitoneRatio(t *testing.T) {
	tests := []struct {
		semitones float64
		want      float64
	}{
		{0, 1},
		{12, 2},
		{-12, 0.5},
		{24, 4},
		{7, math.Pow(2, 7.0/12)},
		{0.5, math.Pow(2, 0.5/12)},
		{200, math.Pow(2, 200.0/12)},
	}
	for _, tt := range tests {
		if got := SemitoneRatio(tt.semitones); math.Abs(got-tt.want) > 1e-9*tt.want {
			t.Errorf("SemitoneRatio(%v): expected %f, got %f", tt.semitones, tt.want, got)
		}
	}
}

func TestNoteRatio(t *testing.T) {
	if r := NoteRatio(RootNote); r != 1 {
		t.Errorf("Root note should play at ratio 1, got %f", r)
	}
	if r := NoteRatio(RootNote + 12); math.Abs(r-2) > 1e-12 {
		t.Errorf("Octave up should double the ratio, got %f", r)
	}
	if r := NoteRatio(0); r <= 0 {
		t.Errorf("Lowest note must keep a positive ratio, got %f", r)
	}
	if r := NoteRatio(127); math.IsInf(r, 0) {
		t.Error("Highest note ratio must be finite")
	}
}

func TestNoteToFrequency(t *testing.T) {
	if f := NoteToFrequency(69, 440); f != 440 {
		t.Errorf("Expected A4 = 440 Hz, got %f", f)
	}
	if f := NoteToFrequency(81, 0); math.Abs(f-880) > 1e-9 {
		t.Errorf("Expected A5 = 880 Hz with default tuning, got %f", f)
	}
}

func TestOutOfRangeNotesClamp(t *testing.T) {
	for _, note := range []uint8{128, 200, 255} {
		if f, want := NoteToFrequency(note, 440), NoteToFrequency(127, 440); f != want {
			t.Errorf("Note %d: expected %f Hz, got %f", note, want, f)
		}
		if r, want := NoteRatio(note), NoteRatio(127); r != want {
			t.Errorf("Note %d: expected ratio %f, got %f", note, want, r)
		}
	}
}

func TestNoteNumberToName(t *testing.T) {
	if name := NoteNumberToName(60); name != "C4" {
		t.Errorf("Expected C4, got %s", name)
	}
	if name := NoteNumberToName(69); name != "A4" {
		t.Errorf("Expected A4, got %s", name)
	}
}
