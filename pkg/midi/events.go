// Package midi provides the note events exchanged between a host and the
// synthesizer, sample-stamped event sequences and pitch conversions.
package midi

import (
	"fmt"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
)

// Event is a channel message stamped with a sample offset.
type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

const (
	CCModWheel    uint8 = 1
	CCVolume      uint8 = 7
	CCPan         uint8 = 10
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCAllNotesOff uint8 = 123
)

// NoteOn is shorthand for a channel-0 note-on at offset.
func NoteOn(offset int32, note, velocity uint8) NoteOnEvent {
	return NoteOnEvent{BaseEvent: BaseEvent{Offset: offset}, NoteNumber: note, Velocity: velocity}
}

// NoteOff is shorthand for a channel-0 note-off at offset.
func NoteOff(offset int32, note uint8) NoteOffEvent {
	return NoteOffEvent{BaseEvent: BaseEvent{Offset: offset}, NoteNumber: note}
}

// WithOffset returns a copy of e stamped with offset.
func WithOffset(e Event, offset int32) Event {
	switch ev := e.(type) {
	case NoteOnEvent:
		ev.Offset = offset
		return ev
	case NoteOffEvent:
		ev.Offset = offset
		return ev
	case ControlChangeEvent:
		ev.Offset = offset
		return ev
	}
	return e
}

func NoteNumberToName(note uint8) string {
	noteNames := [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
