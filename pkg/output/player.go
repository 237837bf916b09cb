package output

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// Player plays a Stream on the default audio device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

// NewPlayer opens the audio device at sampleRate. bufferSize is the device
// latency to request; zero lets the driver decide.
func NewPlayer(stream *Stream, sampleRate int, bufferSize time.Duration) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open audio device")
	}
	<-ready

	return &Player{ctx: ctx, player: ctx.NewPlayer(stream)}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Play()
	}
}

// Err returns the device error, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	return p.player.Err()
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return errors.Wrap(err, "close player")
}
