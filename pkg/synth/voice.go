package synth

import (
	"github.com/justyntemme/granulator/pkg/dsp/envelope"
	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/framework/voice"
	"github.com/justyntemme/granulator/pkg/granular"
)

// Voice is one polyphony slot: a grain cluster shaped by an amplitude
// envelope.
type Voice struct {
	id     int
	shared *granular.Shared
	engine granular.Engine
	ampEnv *envelope.ADSR

	note     uint8
	velocity uint8
	age      int64

	// per block
	frame    *granular.Frame
	origin   int64
	offset   int  // where the next segment lands in the block buffer
	rendered bool // something was rendered this block
	corrupt  bool // the block went non-finite and is dropped

	blockL []float32
	blockR []float32
}

var _ voice.Voice = (*Voice)(nil)

// NewVoice creates voice id with its own cluster of grains.
func NewVoice(id int, shared *granular.Shared, grains int, seed uint64, maxBlock int) *Voice {
	rate := shared.SampleRate()
	vs := granular.NewVoiceState(id, seed)
	return &Voice{
		id:       id,
		shared:   shared,
		engine:   granular.NewCluster(vs, grains, rate),
		ampEnv:   envelope.New(rate),
		blockL:   make([]float32, maxBlock),
		blockR:   make([]float32, maxBlock),
	}
}

// ID returns the voice index.
func (v *Voice) ID() int { return v.id }

// Engine returns the voice's grain engine.
func (v *Voice) Engine() granular.Engine { return v.engine }

func (v *Voice) IsActive() bool        { return v.ampEnv.IsActive() }
func (v *Voice) GetNote() uint8        { return v.note }
func (v *Voice) GetVelocity() uint8    { return v.velocity }
func (v *Voice) GetAmplitude() float64 { return v.ampEnv.Value() }
func (v *Voice) GetAge() int64         { return v.age }

// TriggerNote starts a note. A sounding voice keeps its notes and only
// restarts the envelope; an idle one drops stale notes and silences grains
// left over from the previous note first.
func (v *Voice) TriggerNote(note uint8, velocity uint8) {
	if !v.ampEnv.IsActive() {
		v.engine.ClearNotes()
		v.engine.Reset()
	}
	v.engine.NoteOn(note, velocity)
	v.ampEnv.Trigger()
	v.note = note
	v.velocity = velocity
	v.age = 0
}

// ReleaseNote lets the envelope tail off. The grains keep playing their
// notes until the envelope reaches silence.
func (v *Voice) ReleaseNote() {
	v.ampEnv.Release()
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.ampEnv.Reset()
	v.engine.ClearNotes()
	v.engine.Reset()
	v.age = 0
}

// prepare hands the voice the block's frame and envelope settings and
// clears its block buffer for n frames.
func (v *Voice) prepare(f *granular.Frame, origin int64, n int, attack, decay, sustain, release float64) {
	v.frame = f
	v.origin = origin
	v.offset = 0
	v.rendered = false
	v.corrupt = false
	v.ensureBlock(n)
	clear(v.blockL[:n])
	clear(v.blockR[:n])
	v.ampEnv.SetSampleRate(f.SampleRate)
	v.ampEnv.SetADSR(attack, decay, sustain, release)
	v.engine.Prepare(f)
}

// seek positions the next segment at frame pos of the block.
func (v *Voice) seek(pos int) {
	v.offset = pos
}

// ensureBlock grows the block buffers, keeping what was rendered. Only
// allocates when a host exceeds the configured block size.
func (v *Voice) ensureBlock(n int) {
	if n > len(v.blockL) {
		v.blockL = append(v.blockL, make([]float32, n-len(v.blockL))...)
		v.blockR = append(v.blockR, make([]float32, n-len(v.blockR))...)
	}
}

// Process renders one segment into the voice's block buffer at the current
// offset; left and right only give its length. Output is scaled by the
// squared envelope and reaches the mix in mix, at the end of the block.
func (v *Voice) Process(left, right []float32) {
	if v.frame == nil {
		return
	}
	n := min(len(left), len(right))
	end := v.offset + n
	v.ensureBlock(end)
	l, r := v.blockL[v.offset:end], v.blockR[v.offset:end]

	for i := 0; i < n; i++ {
		e := v.ampEnv.Next()
		g := e * e
		sl, sr := v.engine.Render(v.frame, false)
		l[i] = float32(sl * g)
		r[i] = float32(sr * g)
	}
	v.age += int64(n)
	v.offset = end
	v.rendered = true

	if v.engine.Corrupt() && !v.corrupt {
		v.corrupt = true
		v.shared.Sink.Post(debug.Record{
			Level: debug.LogLevelWarn,
			Code:  debug.CodeNonFinite,
			Voice: int32(v.id),
			Frame: v.origin,
		})
	}
}

// mix adds the block into left and right. A block that went non-finite
// anywhere contributes nothing.
func (v *Voice) mix(left, right []float32) {
	if !v.rendered || v.corrupt {
		return
	}
	n := min(len(left), len(right), len(v.blockL))
	for i := 0; i < n; i++ {
		left[i] += v.blockL[i]
		right[i] += v.blockR[i]
	}
}

// Describe appends the voice's grains scaled by the squared envelope. An
// idle voice reports every grain idle.
func (v *Voice) Describe(dst []granular.Description) []granular.Description {
	gain := 0.0
	if v.ampEnv.IsActive() {
		e := v.ampEnv.Value()
		gain = e * e
	}
	return v.engine.Describe(dst, gain)
}
