package synth

import (
	"github.com/justyntemme/granulator/pkg/framework/param"
	"github.com/justyntemme/granulator/pkg/granular"
)

// Parameter IDs
const (
	ParamTranspose uint32 = iota
	ParamTransposeRand
	ParamPosition
	ParamPositionRand
	ParamSpeed
	ParamSpeedRand
	ParamDuration
	ParamDurationRand
	ParamSkew
	ParamSkewRand
	ParamPlateau
	ParamPlateauRand
	ParamPan
	ParamPanRand
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamGain
	ParamShuffle

	paramCount
)

// Parameters is the synth's parameter store. Values live in atomics, so
// control threads write them at any time and the audio thread reads a
// consistent-enough snapshot once per block.
type Parameters struct {
	*param.Registry
	byID [paramCount]*param.Parameter
}

// NewParameters registers every synth parameter at its default.
func NewParameters() *Parameters {
	d := granular.DefaultParams()
	ps := []*param.Parameter{
		param.SemitoneParameter(ParamTranspose, "transpose", -granular.MaxTranspose, granular.MaxTranspose, d.Transpose).Build(),
		param.SemitoneParameter(ParamTransposeRand, "transpose_rand", 0, granular.MaxTransposeRand, d.TransposeRand).Build(),
		param.NormalizedParameter(ParamPosition, "position", d.Position).Build(),
		param.NormalizedParameter(ParamPositionRand, "position_rand", d.PositionRand).Build(),
		param.RateParameter(ParamSpeed, "speed", granular.MinSpeed, granular.MaxSpeed, d.Speed).Build(),
		param.NormalizedParameter(ParamSpeedRand, "speed_rand", d.SpeedRand).Build(),
		param.NormalizedParameter(ParamDuration, "duration", d.Duration).Build(),
		param.NormalizedParameter(ParamDurationRand, "duration_rand", d.DurationRand).Build(),
		param.NormalizedParameter(ParamSkew, "skew", d.Skew).Build(),
		param.NormalizedParameter(ParamSkewRand, "skew_rand", d.SkewRand).Build(),
		param.MultiplierParameter(ParamPlateau, "plateau", granular.MinPlateau, granular.MaxPlateau, d.Plateau).Build(),
		param.MultiplierParameter(ParamPlateauRand, "plateau_rand", 0, granular.MaxPlateau, d.PlateauRand).Build(),
		param.PanParameter(ParamPan, "pan").Default(d.Pan).Build(),
		param.NormalizedParameter(ParamPanRand, "pan_rand", d.PanRand).Build(),
		param.TimeParameter(ParamAttack, "attack", 0.001, 10, 0.01).Build(),
		param.TimeParameter(ParamDecay, "decay", 0.001, 10, 0.1).Build(),
		param.NormalizedParameter(ParamSustain, "sustain", 1).Build(),
		param.TimeParameter(ParamRelease, "release", 0.001, 20, 0.3).Build(),
		param.GainParameter(ParamGain, "gain").Build(),
		param.ToggleParameter(ParamShuffle, "shuffle", d.Shuffle).Build(),
	}

	p := &Parameters{Registry: param.NewRegistry()}
	if err := p.Add(ps...); err != nil {
		// IDs and names above are fixed
		panic(err)
	}
	for _, prm := range ps {
		p.byID[prm.ID] = prm
	}
	return p
}

func (p *Parameters) plain(id uint32) float64 {
	return p.byID[id].GetPlainValue()
}

// Grain returns the cluster controls as plain values.
func (p *Parameters) Grain() granular.Params {
	return granular.Params{
		Transpose:     p.plain(ParamTranspose),
		TransposeRand: p.plain(ParamTransposeRand),
		Position:      p.plain(ParamPosition),
		PositionRand:  p.plain(ParamPositionRand),
		Speed:         p.plain(ParamSpeed),
		SpeedRand:     p.plain(ParamSpeedRand),
		Duration:      p.plain(ParamDuration),
		DurationRand:  p.plain(ParamDurationRand),
		Skew:          p.plain(ParamSkew),
		SkewRand:      p.plain(ParamSkewRand),
		Plateau:       p.plain(ParamPlateau),
		PlateauRand:   p.plain(ParamPlateauRand),
		Pan:           p.plain(ParamPan),
		PanRand:       p.plain(ParamPanRand),
		Shuffle:       p.byID[ParamShuffle].Bool(),
	}
}

// SetGrain stores every cluster control from g.
func (p *Parameters) SetGrain(g granular.Params) {
	p.byID[ParamTranspose].SetPlainValue(g.Transpose)
	p.byID[ParamTransposeRand].SetPlainValue(g.TransposeRand)
	p.byID[ParamPosition].SetPlainValue(g.Position)
	p.byID[ParamPositionRand].SetPlainValue(g.PositionRand)
	p.byID[ParamSpeed].SetPlainValue(g.Speed)
	p.byID[ParamSpeedRand].SetPlainValue(g.SpeedRand)
	p.byID[ParamDuration].SetPlainValue(g.Duration)
	p.byID[ParamDurationRand].SetPlainValue(g.DurationRand)
	p.byID[ParamSkew].SetPlainValue(g.Skew)
	p.byID[ParamSkewRand].SetPlainValue(g.SkewRand)
	p.byID[ParamPlateau].SetPlainValue(g.Plateau)
	p.byID[ParamPlateauRand].SetPlainValue(g.PlateauRand)
	p.byID[ParamPan].SetPlainValue(g.Pan)
	p.byID[ParamPanRand].SetPlainValue(g.PanRand)
	shuffle := 0.0
	if g.Shuffle {
		shuffle = 1
	}
	p.byID[ParamShuffle].SetPlainValue(shuffle)
}

// Envelope returns attack, decay and release in seconds and sustain 0..1.
func (p *Parameters) Envelope() (attack, decay, sustain, release float64) {
	return p.plain(ParamAttack), p.plain(ParamDecay), p.plain(ParamSustain), p.plain(ParamRelease)
}

// GainDB returns the master gain in dB.
func (p *Parameters) GainDB() float64 {
	return p.plain(ParamGain)
}
