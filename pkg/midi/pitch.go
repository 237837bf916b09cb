package midi

import "math"

// RootNote is the note at which a sample plays at its recorded pitch.
const RootNote uint8 = 60

const semitoneRange = 128

// maxNote is the highest MIDI note number.
const maxNote uint8 = 127

// semitoneRatios[i] holds 2^((i-semitoneRange)/12). Built once in init and
// read-only afterwards.
var semitoneRatios [2*semitoneRange + 1]float64

func init() {
	for i := range semitoneRatios {
		semitoneRatios[i] = math.Exp2(float64(i-semitoneRange) / 12)
	}
}

// SemitoneRatio converts a pitch offset in semitones into a playback ratio.
// Whole semitones in [-128, 128] come from a lookup table.
func SemitoneRatio(semitones float64) float64 {
	if semitones == math.Trunc(semitones) && semitones >= -semitoneRange && semitones <= semitoneRange {
		return semitoneRatios[int(semitones)+semitoneRange]
	}
	return math.Exp2(semitones / 12)
}

// NoteRatio returns the playback ratio of note relative to RootNote.
// Notes above 127 are clamped.
func NoteRatio(note uint8) float64 {
	note = min(note, maxNote)
	return semitoneRatios[int(note)-int(RootNote)+semitoneRange]
}

// NoteToFrequency converts a MIDI note to Hz for the given A4 tuning.
// Notes above 127 are clamped.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	note = min(note, maxNote)
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * semitoneRatios[int(note)-69+semitoneRange]
}

// VelocityGain maps a 0..127 velocity onto a 0..1 amplitude.
func VelocityGain(velocity uint8) float64 {
	if velocity > 127 {
		velocity = 127
	}
	return float64(velocity) / 127.0
}
