package midi

import (
	"sort"
)

// Sequence is an immutable, offset-sorted list of events. Windows into it
// share the backing array, so reading a block's events never allocates.
type Sequence struct {
	events []Event
	length int32
}

// NewSequence sorts events by sample offset (stable) and wraps them.
func NewSequence(events []Event) *Sequence {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SampleOffset() < sorted[j].SampleOffset()
	})

	var length int32
	if n := len(sorted); n > 0 {
		length = sorted[n-1].SampleOffset() + 1
	}
	return &Sequence{events: sorted, length: length}
}

// Len returns the number of events.
func (s *Sequence) Len() int {
	return len(s.events)
}

// Length returns one past the offset of the last event.
func (s *Sequence) Length() int32 {
	return s.length
}

// Events returns all events in order. The slice must not be modified.
func (s *Sequence) Events() []Event {
	return s.events
}

// Window returns the events with startSample <= offset < endSample.
// The returned slice aliases the sequence and must not be modified.
func (s *Sequence) Window(startSample, endSample int32) []Event {
	if endSample <= startSample {
		return nil
	}
	lo := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].SampleOffset() >= startSample
	})
	hi := lo
	for hi < len(s.events) && s.events[hi].SampleOffset() < endSample {
		hi++
	}
	if lo == hi {
		return nil
	}
	return s.events[lo:hi]
}

// EventProcessor consumes events, e.g. a voice allocator.
type EventProcessor interface {
	ProcessEvent(event Event)
}
