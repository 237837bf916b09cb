package granular

import "testing"

func TestNoteHolder(t *testing.T) {
	var h NoteHolder

	if !h.Set(64, 90) {
		t.Error("First Set should add the note")
	}
	if h.Set(64, 100) {
		t.Error("Updating a held note should not count as added")
	}
	if h.Velocity(64) != 100 {
		t.Errorf("Expected velocity 100, got %d", h.Velocity(64))
	}
	h.Set(60, 0)
	if !h.Has(60) || h.Velocity(60) != 1 {
		t.Error("Velocity 0 should still hold the note")
	}
	if h.Set(200, 10) {
		t.Error("Out of range notes must be ignored")
	}

	notes := h.Notes(nil)
	if len(notes) != 2 || notes[0] != 60 || notes[1] != 64 {
		t.Errorf("Expected ascending [60 64], got %v", notes)
	}

	if h.Remove(61) {
		t.Error("Removing an unknown note should be a no-op")
	}
	if !h.Remove(60) || h.Len() != 1 {
		t.Errorf("Expected one note after removal, got %d", h.Len())
	}
	h.Clear()
	if h.Len() != 0 || h.Has(64) {
		t.Error("Clear should drop every note")
	}
}

func TestSpanCoversEveryGrain(t *testing.T) {
	for grains := 1; grains <= 16; grains++ {
		for notes := 1; notes <= 20; notes++ {
			next := 0
			for k := 0; k < notes; k++ {
				begin, end := Span(k, notes, grains)
				if begin != next {
					t.Fatalf("%d notes over %d grains: run %d starts at %d, want %d", notes, grains, k, begin, next)
				}
				if end < begin {
					t.Fatalf("%d notes over %d grains: run %d is inverted", notes, grains, k)
				}
				next = end
			}
			if next != grains {
				t.Fatalf("%d notes over %d grains: runs end at %d", notes, grains, next)
			}
		}
	}

	if b, e := Span(0, 0, 4); b != 0 || e != 0 {
		t.Error("No notes should give an empty span")
	}
}

func TestPartition(t *testing.T) {
	grains := make([]Grain, 8)
	for i := range grains {
		grains[i] = NewGrain(i)
	}

	var h NoteHolder
	h.Set(67, 100)
	h.Set(60, 100)
	h.Set(64, 100)
	h.Partition(grains)

	want := []uint8{60, 60, 64, 64, 64, 67, 67, 67}
	check := func() {
		t.Helper()
		for i, g := range grains {
			if g.Note() != want[i] {
				t.Errorf("Grain %d: expected note %d, got %d", i, want[i], g.Note())
			}
		}
	}
	check()

	h.Partition(grains)
	check()

	h.Clear()
	h.Partition(grains)
	check()
}

func TestPartitionMoreNotesThanGrains(t *testing.T) {
	grains := make([]Grain, 3)
	for i := range grains {
		grains[i] = NewGrain(i)
	}

	var h NoteHolder
	for _, n := range []uint8{50, 52, 54, 56, 58} {
		h.Set(n, 100)
	}
	h.Partition(grains)

	for i, g := range grains {
		if !h.Has(g.Note()) {
			t.Errorf("Grain %d plays note %d which is not held", i, g.Note())
		}
	}
	if grains[2].Note() != 58 {
		t.Errorf("Highest note should land on the last grain, got %d", grains[2].Note())
	}
}
