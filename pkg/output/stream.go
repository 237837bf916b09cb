package output

import (
	"encoding/binary"
	"math"

	"github.com/justyntemme/granulator/pkg/midi"
)

// BytesPerFrame is the size of one interleaved float32 stereo frame.
const BytesPerFrame = 8

// BlockRenderer renders stereo blocks, e.g. a synth.Synthesizer.
type BlockRenderer interface {
	ProcessBlock(left, right []float32, events []midi.Event, origin int64)
}

// Stream adapts a BlockRenderer to an io.Reader of interleaved
// little-endian float32 stereo frames. Read never fails and never returns
// short, so it can back a device player directly.
type Stream struct {
	r     BlockRenderer
	left  []float32
	right []float32
	buf   []byte
	off   int
}

// NewStream renders blockSize frames at a time.
func NewStream(r BlockRenderer, blockSize int) *Stream {
	if blockSize < 1 {
		blockSize = 1
	}
	return &Stream{
		r:     r,
		left:  make([]float32, blockSize),
		right: make([]float32, blockSize),
		buf:   make([]byte, blockSize*BytesPerFrame),
		off:   blockSize * BytesPerFrame,
	}
}

// Read fills p with rendered audio.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if s.off == len(s.buf) {
			s.fill()
		}
		c := copy(p[n:], s.buf[s.off:])
		s.off += c
		n += c
	}
	return n, nil
}

func (s *Stream) fill() {
	s.r.ProcessBlock(s.left, s.right, nil, 0)
	for i := range s.left {
		binary.LittleEndian.PutUint32(s.buf[i*BytesPerFrame:], math.Float32bits(s.left[i]))
		binary.LittleEndian.PutUint32(s.buf[i*BytesPerFrame+4:], math.Float32bits(s.right[i]))
	}
	s.off = 0
}
