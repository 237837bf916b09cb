package sample

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// Load decodes a WAV or MP3 file into a mono Buffer, keeping the first
// channel.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sample")
	}
	defer f.Close()

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return DecodeWAV(name, f)
	case ".mp3":
		return DecodeMP3(name, f)
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
}

// DecodeWAV decodes integer PCM WAV data.
func DecodeWAV(name string, r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: not a PCM WAV file", name)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = buf.SourceBitDepth
	}
	if depth < 8 || depth > 32 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: %d-bit samples", name, depth)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	data := make([]float32, frames)
	scale := math.Pow(2, float64(depth-1))
	for i := range data {
		v := buf.Data[i*channels]
		if depth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		data[i] = float32(float64(v) / scale)
	}
	return NewBuffer(name, data, float64(buf.Format.SampleRate))
}

// DecodeMP3 decodes an MP3 stream. go-mp3 always produces 16-bit stereo.
func DecodeMP3(name string, r io.Reader) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}

	const frameBytes = 4 // 2 channels x int16
	frames := len(raw) / frameBytes
	data := make([]float32, frames)
	for i := range data {
		left := int16(binary.LittleEndian.Uint16(raw[i*frameBytes:]))
		data[i] = float32(left) / 32768
	}
	return NewBuffer(name, data, float64(dec.SampleRate()))
}
