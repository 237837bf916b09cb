package midi

import (
	"io"
	"os"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrNoNotes is returned when a MIDI file contains no note events.
var ErrNoNotes = errors.New("midi file contains no notes")

// LoadSMF reads a standard MIDI file and stamps its channel events with
// sample offsets at sampleRate. Tempo changes are honoured.
func LoadSMF(path string, sampleRate float64) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open midi file")
	}
	defer f.Close()

	seq, err := ReadSMF(f, sampleRate)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return seq, nil
}

// ReadSMF is LoadSMF for an already opened reader.
func ReadSMF(r io.Reader, sampleRate float64) (*Sequence, error) {
	if sampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate %f", sampleRate)
	}

	var events []Event
	notes := 0
	tr := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		offset := int32(float64(te.AbsMicroSeconds) * sampleRate / 1e6)
		msg := gomidi.Message(te.Message)

		var ch, key, vel, ctl, val uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			events = append(events, NoteOnEvent{BaseEvent: BaseEvent{EventChannel: ch, Offset: offset}, NoteNumber: key, Velocity: vel})
			notes++
		case msg.GetNoteEnd(&ch, &key):
			events = append(events, NoteOffEvent{BaseEvent: BaseEvent{EventChannel: ch, Offset: offset}, NoteNumber: key})
		case msg.GetControlChange(&ch, &ctl, &val):
			events = append(events, ControlChangeEvent{BaseEvent: BaseEvent{EventChannel: ch, Offset: offset}, Controller: ctl, Value: val})
		}
	})
	if err := tr.Error(); err != nil {
		return nil, errors.Wrap(err, "parse smf")
	}
	if notes == 0 {
		return nil, ErrNoNotes
	}
	return NewSequence(events), nil
}
