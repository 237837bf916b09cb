// Package voice assigns incoming notes to a fixed pool of synth voices.
package voice

import (
	"github.com/justyntemme/granulator/pkg/midi"
)

// AllocationMode defines how voices are allocated
type AllocationMode int

const (
	// ModePoly gives each note its own voice
	ModePoly AllocationMode = iota
	// ModeMono keeps one voice active at a time
	ModeMono
	// ModeUnison plays every voice on the same note
	ModeUnison
)

// String returns the mode name.
func (m AllocationMode) String() string {
	switch m {
	case ModePoly:
		return "poly"
	case ModeMono:
		return "mono"
	case ModeUnison:
		return "unison"
	default:
		return "unknown"
	}
}

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the oldest playing voice
	StealOldest StealingMode = iota
	// StealQuietest steals the voice with lowest amplitude
	StealQuietest
	// StealHighest steals the highest pitched voice
	StealHighest
	// StealLowest steals the lowest pitched voice
	StealLowest
	// StealNone doesn't steal - new notes are ignored when full
	StealNone
)

// Voice represents a single voice in the synthesizer
type Voice interface {
	// IsActive returns true if the voice is currently producing sound
	IsActive() bool
	// GetNote returns the MIDI note number this voice was last triggered with
	GetNote() uint8
	// GetVelocity returns the velocity of the note
	GetVelocity() uint8
	// GetAmplitude returns the current amplitude (for steal quietest)
	GetAmplitude() float64
	// GetAge returns how long this voice has been playing (in samples)
	GetAge() int64
	// TriggerNote starts playing a note
	TriggerNote(note uint8, velocity uint8)
	// ReleaseNote lets the note tail off
	ReleaseNote()
	// Stop immediately silences the voice
	Stop()
	// Process renders this voice's audio for a segment of the stereo output
	Process(left, right []float32)
}

const noVoice = -1

// Allocator manages voice allocation for polyphonic synthesis. It is driven
// from the audio thread and never allocates after construction.
type Allocator struct {
	voices        []Voice
	mode          AllocationMode
	stealingMode  StealingMode
	maxVoices     int
	noteToVoice   [128]int
	voiceNote     []int
	lastTriggered int
	sustainPedal  bool
	sustained     [128]bool
	currentNote   int
	onSteal       func(voice int, note uint8)
}

// NewAllocator creates a new voice allocator
func NewAllocator(voices []Voice) *Allocator {
	a := &Allocator{
		voices:       voices,
		mode:         ModePoly,
		stealingMode: StealOldest,
		maxVoices:    len(voices),
		voiceNote:    make([]int, len(voices)),
		currentNote:  noVoice,
	}
	a.clearMaps()
	return a
}

// SetMode sets the allocation mode and stops all voices.
func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	a.Reset()
}

// Mode returns the allocation mode.
func (a *Allocator) Mode() AllocationMode {
	return a.mode
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// SetMaxVoices sets the maximum number of active voices
func (a *Allocator) SetMaxVoices(max int) {
	if max > len(a.voices) {
		max = len(a.voices)
	}
	if max < 1 {
		max = 1
	}
	a.maxVoices = max
}

// OnSteal registers a callback invoked when a voice is stolen. It runs on
// the audio thread.
func (a *Allocator) OnSteal(fn func(voice int, note uint8)) {
	a.onSteal = fn
}

// ProcessEvent handles a MIDI event
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			a.NoteOn(e.NoteNumber, e.Velocity)
		} else {
			// Note on with velocity 0 is treated as note off
			a.NoteOff(e.NoteNumber)
		}
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber)
	case midi.ControlChangeEvent:
		switch e.Controller {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value >= 64)
		case midi.CCAllNotesOff:
			a.AllNotesOff()
		case midi.CCAllSoundOff:
			a.Reset()
		}
	}
}

// NoteOn handles a note on event
func (a *Allocator) NoteOn(note uint8, velocity uint8) {
	if note > 127 {
		return
	}
	a.sustained[note] = false
	switch a.mode {
	case ModePoly:
		a.noteOnPoly(note, velocity)
	case ModeMono:
		a.noteOnMono(note, velocity)
	case ModeUnison:
		a.noteOnUnison(note, velocity)
	}
}

// NoteOff handles a note off event. Unknown notes are ignored.
func (a *Allocator) NoteOff(note uint8) {
	if note > 127 {
		return
	}
	if a.sustainPedal {
		if a.isHeld(note) {
			a.sustained[note] = true
		}
		return
	}
	a.release(note)
}

// StopNote silences the voice holding note without a tail-off.
func (a *Allocator) StopNote(note uint8) {
	if note > 127 {
		return
	}
	a.sustained[note] = false
	switch a.mode {
	case ModePoly:
		if idx := a.noteToVoice[note]; idx != noVoice {
			a.voices[idx].Stop()
			a.unmap(idx)
		}
	case ModeMono, ModeUnison:
		if a.currentNote != int(note) {
			return
		}
		n := 1
		if a.mode == ModeUnison {
			n = a.maxVoices
		}
		for i := 0; i < n; i++ {
			a.voices[i].Stop()
		}
		a.noteToVoice[note] = noVoice
		a.currentNote = noVoice
	}
}

// SetSustainPedal sets the sustain pedal state
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for note := range a.sustained {
		if a.sustained[note] {
			a.sustained[note] = false
			a.release(uint8(note))
		}
	}
}

// AllNotesOff releases every held note with tail-off.
func (a *Allocator) AllNotesOff() {
	a.sustainPedal = false
	for note := range a.noteToVoice {
		a.sustained[note] = false
		if a.noteToVoice[note] != noVoice {
			a.release(uint8(note))
		}
	}
}

// Reset stops all voices and clears allocations
func (a *Allocator) Reset() {
	for _, voice := range a.voices {
		voice.Stop()
	}
	a.clearMaps()
	a.sustainPedal = false
	a.currentNote = noVoice
}

// Process renders every active voice into the stereo output.
func (a *Allocator) Process(left, right []float32) {
	for _, v := range a.voices[:a.maxVoices] {
		if v.IsActive() {
			v.Process(left, right)
		}
	}
}

// GetActiveVoiceCount returns the number of active voices
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, voice := range a.voices[:a.maxVoices] {
		if voice.IsActive() {
			count++
		}
	}
	return count
}

// VoiceForNote returns the index of the voice holding note, or -1.
func (a *Allocator) VoiceForNote(note uint8) int {
	if note > 127 {
		return noVoice
	}
	return a.noteToVoice[note]
}

func (a *Allocator) clearMaps() {
	for i := range a.noteToVoice {
		a.noteToVoice[i] = noVoice
		a.sustained[i] = false
	}
	for i := range a.voiceNote {
		a.voiceNote[i] = noVoice
	}
}

func (a *Allocator) isHeld(note uint8) bool {
	if a.mode == ModePoly {
		return a.noteToVoice[note] != noVoice
	}
	return a.currentNote == int(note)
}

func (a *Allocator) release(note uint8) {
	switch a.mode {
	case ModePoly:
		idx := a.noteToVoice[note]
		if idx == noVoice {
			return
		}
		a.voices[idx].ReleaseNote()
		a.unmap(idx)
	case ModeMono, ModeUnison:
		if a.currentNote != int(note) {
			return
		}
		n := 1
		if a.mode == ModeUnison {
			n = a.maxVoices
		}
		for i := 0; i < n; i++ {
			a.voices[i].ReleaseNote()
		}
		a.noteToVoice[note] = noVoice
		a.currentNote = noVoice
	}
}

func (a *Allocator) unmap(idx int) {
	if n := a.voiceNote[idx]; n != noVoice && a.noteToVoice[n] == idx {
		a.noteToVoice[n] = noVoice
	}
	a.voiceNote[idx] = noVoice
}

func (a *Allocator) noteOnPoly(note uint8, velocity uint8) {
	// Retrigger on the voice already holding the note
	if idx := a.noteToVoice[note]; idx != noVoice {
		a.voices[idx].TriggerNote(note, velocity)
		return
	}

	idx := a.findFreeVoice()
	if idx == noVoice {
		idx = a.stealVoice()
		if idx == noVoice {
			return
		}
	}

	a.unmap(idx)
	a.voices[idx].TriggerNote(note, velocity)
	a.noteToVoice[note] = idx
	a.voiceNote[idx] = int(note)
}

func (a *Allocator) noteOnMono(note uint8, velocity uint8) {
	if a.currentNote != noVoice && a.currentNote != int(note) {
		a.noteToVoice[a.currentNote] = noVoice
		a.voices[0].Stop()
	}
	a.currentNote = int(note)
	a.noteToVoice[note] = 0
	a.voiceNote[0] = int(note)
	a.voices[0].TriggerNote(note, velocity)
}

func (a *Allocator) noteOnUnison(note uint8, velocity uint8) {
	if a.currentNote != noVoice && a.currentNote != int(note) {
		a.noteToVoice[a.currentNote] = noVoice
	}
	for i := 0; i < a.maxVoices; i++ {
		a.voices[i].TriggerNote(note, velocity)
		a.voiceNote[i] = int(note)
	}
	a.noteToVoice[note] = 0
	a.currentNote = int(note)
}

// findFreeVoice finds an inactive voice, round-robin from the last one used
func (a *Allocator) findFreeVoice() int {
	start := a.lastTriggered
	for i := 0; i < a.maxVoices; i++ {
		idx := (start + i + 1) % a.maxVoices
		if !a.voices[idx].IsActive() {
			a.lastTriggered = idx
			return idx
		}
	}
	return noVoice
}

// stealVoice steals a voice based on the stealing mode
func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return noVoice
	}

	bestIdx := noVoice
	var bestValue float64

	for i := 0; i < a.maxVoices; i++ {
		v := a.voices[i]
		if !v.IsActive() {
			continue
		}

		var value float64
		better := false
		switch a.stealingMode {
		case StealOldest:
			value = float64(v.GetAge())
			better = value > bestValue
		case StealQuietest:
			value = v.GetAmplitude()
			better = value < bestValue
		case StealHighest:
			value = float64(v.GetNote())
			better = value > bestValue
		case StealLowest:
			value = float64(v.GetNote())
			better = value < bestValue
		}
		if bestIdx == noVoice || better {
			bestIdx = i
			bestValue = value
		}
	}

	if bestIdx != noVoice {
		if a.onSteal != nil {
			a.onSteal(bestIdx, a.voices[bestIdx].GetNote())
		}
		a.unmap(bestIdx)
		a.voices[bestIdx].Stop()
	}
	return bestIdx
}
