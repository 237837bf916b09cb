package granular

// Description is a read-only snapshot of one grain, exported once per block
// for visualization.
type Description struct {
	Voice    int     `json:"voice"`
	Grain    int     `json:"grain"`
	Position float64 `json:"position"` // normalized read position in the buffer
	Rate     float64 `json:"rate"`     // playback ratio
	Window   float64 `json:"window"`   // envelope value scaled by the voice gain
	Pan      float64 `json:"pan"`
	Busy     bool    `json:"busy"`
}
