// Package keyboard turns a computer keyboard into a note source. Terminals
// report key presses but not releases, so each note key toggles its note.
package keyboard

import "github.com/justyntemme/granulator/pkg/midi"

// Action is what a key press asks for.
type Action int

const (
	ActionNone Action = iota
	ActionNoteOn
	ActionNoteOff
	ActionOctaveDown
	ActionOctaveUp
	ActionAllNotesOff
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionNoteOn:
		return "note on"
	case ActionNoteOff:
		return "note off"
	case ActionOctaveDown:
		return "octave down"
	case ActionOctaveUp:
		return "octave up"
	case ActionAllNotesOff:
		return "all notes off"
	case ActionQuit:
		return "quit"
	}
	return "none"
}

// Tracker-style layout: the bottom row plays one octave, the top row the
// next. Values are semitones above the layout's base note.
var noteKeys = map[byte]int{
	'z': 0, 's': 1, 'x': 2, 'd': 3, 'c': 4, 'v': 5, 'g': 6,
	'b': 7, 'h': 8, 'n': 9, 'j': 10, 'm': 11, ',': 12,
	'q': 12, '2': 13, 'w': 14, '3': 15, 'e': 16, 'r': 17, '5': 18,
	't': 19, '6': 20, 'y': 21, '7': 22, 'u': 23, 'i': 24,
}

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b

	minOctave     = 0
	maxOctave     = 8
	DefaultOctave = 4
)

// Layout maps key presses to note actions and tracks which notes are held.
type Layout struct {
	octave int
	held   [128]bool
}

// NewLayout creates a layout whose bottom row starts at C of octave.
func NewLayout(octave int) *Layout {
	return &Layout{octave: max(minOctave, min(octave, maxOctave))}
}

// Octave returns the current base octave.
func (l *Layout) Octave() int { return l.octave }

// Held reports whether note is sounding.
func (l *Layout) Held(note uint8) bool { return note < 128 && l.held[note] }

// Key interprets one byte of raw terminal input.
func (l *Layout) Key(b byte) (Action, uint8) {
	switch b {
	case keyCtrlC, keyEscape:
		return ActionQuit, 0
	case ' ':
		clear(l.held[:])
		return ActionAllNotesOff, 0
	case '-':
		if l.octave > minOctave {
			l.octave--
		}
		return ActionOctaveDown, 0
	case '=', '+':
		if l.octave < maxOctave {
			l.octave++
		}
		return ActionOctaveUp, 0
	}

	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	semi, ok := noteKeys[b]
	if !ok {
		return ActionNone, 0
	}
	n := (l.octave+1)*12 + semi
	if n > 127 {
		return ActionNone, 0
	}
	note := uint8(n)
	l.held[note] = !l.held[note]
	if l.held[note] {
		return ActionNoteOn, note
	}
	return ActionNoteOff, note
}

// Describe returns a one-line legend for the current octave.
func (l *Layout) Describe() string {
	low := uint8((l.octave + 1) * 12)
	return "keys z..m / q..u play " + midi.NoteNumberToName(low) + " up, -/= octave, space all off, esc quit"
}
