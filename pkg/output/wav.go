// Package output moves rendered audio out of the synthesizer: to WAV files
// and to the system audio device.
package output

import (
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WAVWriter streams stereo blocks into a PCM WAV file.
type WAVWriter struct {
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	scale  float64
	frames int64
}

// NewWAVWriter writes a stereo WAV of the given bit depth (16 or 24) to w.
// The header is finalized by Close.
func NewWAVWriter(w io.WriteSeeker, sampleRate, bitDepth int) (*WAVWriter, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, errors.Errorf("unsupported bit depth %d", bitDepth)
	}
	if sampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate %d", sampleRate)
	}
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, bitDepth, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		scale: math.Exp2(float64(bitDepth-1)) - 1,
	}, nil
}

// Write appends one block. Samples are clipped to [-1, 1]; non-finite
// samples are written as silence.
func (w *WAVWriter) Write(left, right []float32) error {
	n := min(len(left), len(right))
	w.buf.Data = w.buf.Data[:0]
	for i := 0; i < n; i++ {
		w.buf.Data = append(w.buf.Data, w.quantize(left[i]), w.quantize(right[i]))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return errors.Wrap(err, "write wav")
	}
	w.frames += int64(n)
	return nil
}

func (w *WAVWriter) quantize(v float32) int {
	f := float64(v)
	if math.IsNaN(f) {
		return 0
	}
	f = math.Max(-1, math.Min(1, f))
	return int(math.Round(f * w.scale))
}

// Frames returns the number of frames written.
func (w *WAVWriter) Frames() int64 { return w.frames }

// Close finalizes the WAV header. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	return errors.Wrap(w.enc.Close(), "finalize wav")
}

// WAVFile is a WAVWriter that owns its file.
type WAVFile struct {
	*WAVWriter
	f *os.File
}

// CreateWAV creates path and returns a writer for it.
func CreateWAV(path string, sampleRate, bitDepth int) (*WAVFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	w, err := NewWAVWriter(f, sampleRate, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &WAVFile{WAVWriter: w, f: f}, nil
}

// Close finalizes the header and closes the file.
func (w *WAVFile) Close() error {
	if err := w.WAVWriter.Close(); err != nil {
		w.f.Close()
		return err
	}
	return errors.Wrap(w.f.Close(), "close wav")
}
