// Package sample holds the source audio a granular voice reads from.
//
// A Buffer is immutable once built. Loaders construct a new Buffer off the
// audio thread and publish it through a Store; the audio thread loads the
// current Buffer once per block.
package sample

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyBuffer is returned when a buffer has no samples.
	ErrEmptyBuffer = errors.New("sample buffer is empty")
	// ErrInvalidRate is returned for a non-positive or non-finite sample rate.
	ErrInvalidRate = errors.New("invalid sample rate")
	// ErrUnsupportedFormat is returned for files the loader cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Buffer is a mono sample at its native rate.
type Buffer struct {
	Name string
	Data []float32
	Rate float64
	Hash uint64
}

// NewBuffer wraps data, which the caller must not modify afterwards.
// Non-finite samples are replaced with zero.
func NewBuffer(name string, data []float32, rate float64) (*Buffer, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrEmptyBuffer, name)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, errors.Wrapf(ErrInvalidRate, "%s: %v", name, rate)
	}
	for i, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			data[i] = 0
		}
	}
	return &Buffer{Name: name, Data: data, Rate: rate, Hash: Hash(data, rate)}, nil
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.Rate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / b.Rate
}

// Slice returns a copy of the [begin, end) normalized region as a new Buffer.
func (b *Buffer) Slice(begin, end float64) (*Buffer, error) {
	n := float64(len(b.Data))
	lo := int(math.Floor(clamp01(begin) * n))
	hi := int(math.Ceil(clamp01(end) * n))
	if hi <= lo {
		return nil, errors.Wrapf(ErrEmptyBuffer, "%s[%.3f:%.3f]", b.Name, begin, end)
	}
	data := make([]float32, hi-lo)
	copy(data, b.Data[lo:hi])
	return NewBuffer(b.Name, data, b.Rate)
}

// Hash returns the FNV-64a content hash of data and rate.
func Hash(data []float32, rate float64) uint64 {
	h := fnv.New64a()
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], math.Float64bits(rate))
	h.Write(word[:])
	for _, v := range data {
		binary.LittleEndian.PutUint32(word[:4], math.Float32bits(v))
		h.Write(word[:4])
	}
	return h.Sum64()
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
