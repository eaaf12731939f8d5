package effects

import (
	"fmt"

	"github.com/atomozero/venicedaw-core/internal/eq"
)

// EQEffect adapts internal/eq.EQ to the Effect interface, exposing each
// band's frequency/gain/Q as three named parameters.
type EQEffect struct {
	eq *eq.EQ
}

// NewEQEffect wraps an existing EQ instance.
func NewEQEffect(e *eq.EQ) *EQEffect {
	return &EQEffect{eq: e}
}

func (e *EQEffect) Name() string { return "Parametric EQ" }

func (e *EQEffect) BeginBlock() { e.eq.BeginBlock() }

func (e *EQEffect) ProcessBlock(channel int, buf []float32) { e.eq.ProcessBlock(channel, buf) }

func (e *EQEffect) Reset() { e.eq.Reset() }

func (e *EQEffect) Bypassed() bool { return e.eq.Bypassed() }

func (e *EQEffect) SetBypassed(bypassed bool) { e.eq.SetBypassed(bypassed) }

func (e *EQEffect) LatencySamples() int { return 0 }

// Params enumerates frequency/gain/Q for every band, named
// "band<N>.freq" / "band<N>.gain" / "band<N>.q".
func (e *EQEffect) Params() []ParamSpec {
	specs := make([]ParamSpec, 0, eq.NumBands*3)
	for i := 0; i < eq.NumBands; i++ {
		b := e.eq.Band(i)
		specs = append(specs,
			ParamSpec{Name: fmt.Sprintf("band%d.freq", i), Min: 20, Max: 20000, DefaultValue: float64(b.Frequency)},
			ParamSpec{Name: fmt.Sprintf("band%d.gain", i), Min: -24, Max: 24, DefaultValue: float64(b.Gain)},
			ParamSpec{Name: fmt.Sprintf("band%d.q", i), Min: 0.1, Max: 20, DefaultValue: float64(b.Q)},
		)
	}
	return specs
}

func (e *EQEffect) GetParam(name string) (float64, bool) {
	band, field, ok := parseBandParam(name)
	if !ok {
		return 0, false
	}
	b := e.eq.Band(band)
	switch field {
	case "freq":
		return float64(b.Frequency), true
	case "gain":
		return float64(b.Gain), true
	case "q":
		return float64(b.Q), true
	default:
		return 0, false
	}
}

func (e *EQEffect) SetParam(name string, value float64) bool {
	band, field, ok := parseBandParam(name)
	if !ok {
		return false
	}
	b := e.eq.Band(band)
	freq, gain, q := b.Frequency, b.Gain, b.Q
	switch field {
	case "freq":
		freq = float32(value)
	case "gain":
		gain = float32(value)
	case "q":
		q = float32(value)
	default:
		return false
	}
	e.eq.SetBand(band, freq, gain, q)
	return true
}

func parseBandParam(name string) (band int, field string, ok bool) {
	var n int
	var f string
	if _, err := fmt.Sscanf(name, "band%d.%s", &n, &f); err != nil {
		return 0, "", false
	}
	if n < 0 || n >= eq.NumBands {
		return 0, "", false
	}
	return n, f, true
}
