// Package eq implements the 8-band parametric equalizer (SPEC_FULL.md
// §4.3): a fixed cascade of biquads per channel, with a dirty-flag
// coalesced coefficient recompute at block boundaries.
package eq

import (
	"sync/atomic"

	"github.com/atomozero/venicedaw-core/internal/dsp"
)

const NumBands = 8

// BandType mirrors dsp.FilterType's enumerated kinds for clamp/validate
// purposes at this layer.
type BandType = dsp.FilterType

// Band holds one EQ band's parameters. Ranges are clamped on write.
type Band struct {
	Frequency float32
	Gain      float32
	Q         float32
	Type      BandType
	Enabled   bool
}

func clampBand(b *Band) {
	if b.Frequency < 20 {
		b.Frequency = 20
	} else if b.Frequency > 20000 {
		b.Frequency = 20000
	}
	if b.Gain < -24 {
		b.Gain = -24
	} else if b.Gain > 24 {
		b.Gain = 24
	}
	if b.Q < 0.1 {
		b.Q = 0.1
	} else if b.Q > 20 {
		b.Q = 20
	}
}

// EQ is an 8-band cascaded biquad equalizer with one filter chain per
// audio channel.
type EQ struct {
	sampleRate float64
	bands      [NumBands]Band
	filters    [][NumBands]dsp.Biquad
	dcBlockers []dsp.DCBlocker
	dirty      atomic.Bool
	bypassed   atomic.Bool
}

// New creates an EQ for the given sample rate and channel count, with
// the SPEC_FULL.md §4.3 default band layout: band 0 a disabled 60 Hz
// high-pass, band 7 a disabled 16 kHz low-pass, bands 1-6 flat
// peaking/shelving bands at {150, 500, 1000, 2000, 4000, 8000} Hz.
func New(sampleRate float64, channels int) *EQ {
	e := &EQ{
		sampleRate: sampleRate,
		filters:    make([][NumBands]dsp.Biquad, channels),
		dcBlockers: make([]dsp.DCBlocker, channels),
	}

	e.bands[0] = Band{Frequency: 60, Gain: 0, Q: 0.707, Type: dsp.HighPass, Enabled: false}
	midFreqs := [6]float32{150, 500, 1000, 2000, 4000, 8000}
	for i, f := range midFreqs {
		e.bands[i+1] = Band{Frequency: f, Gain: 0, Q: 0.707, Type: dsp.Peak, Enabled: true}
	}
	e.bands[7] = Band{Frequency: 16000, Gain: 0, Q: 0.707, Type: dsp.LowPass, Enabled: false}

	for ch := range e.dcBlockers {
		e.dcBlockers[ch].SetCutoff(20, sampleRate)
	}
	e.dirty.Store(true)
	return e
}

// SetBand updates a band's frequency/gain/Q, clamping to valid ranges,
// and raises the dirty flag for the next block boundary.
func (e *EQ) SetBand(band int, freq, gain, q float32) {
	b := &e.bands[band]
	b.Frequency, b.Gain, b.Q = freq, gain, q
	clampBand(b)
	e.dirty.Store(true)
}

// SetBandType changes a band's filter kind.
func (e *EQ) SetBandType(band int, kind BandType) {
	e.bands[band].Type = kind
	e.dirty.Store(true)
}

// SetBandEnabled toggles a band on or off.
func (e *EQ) SetBandEnabled(band int, enabled bool) {
	e.bands[band].Enabled = enabled
	e.dirty.Store(true)
}

// Band returns a copy of the given band's parameters.
func (e *EQ) Band(band int) Band {
	return e.bands[band]
}

// SetBypassed bypasses the whole chain to identity.
func (e *EQ) SetBypassed(bypassed bool) {
	e.bypassed.Store(bypassed)
}

// Bypassed reports whether the chain is bypassed.
func (e *EQ) Bypassed() bool {
	return e.bypassed.Load()
}

// updateFilters recomputes every channel's biquad coefficients from the
// current band parameters. Called once per block, only if dirty.
func (e *EQ) updateFilters() {
	for band := 0; band < NumBands; band++ {
		b := &e.bands[band]
		for ch := range e.filters {
			e.filters[ch][band].CalculateCoefficients(b.Type, e.sampleRate, float64(b.Frequency), float64(b.Q), float64(b.Gain))
		}
	}
}

// ProcessBlock applies the EQ cascade to one channel's block in place.
// Call BeginBlock once per engine block before processing any channel.
func (e *EQ) ProcessBlock(channel int, buf []float32) {
	if e.bypassed.Load() {
		return
	}
	e.dcBlockers[channel].ProcessBlock(buf)
	for band := 0; band < NumBands; band++ {
		if !e.bands[band].Enabled {
			continue
		}
		e.filters[channel][band].ProcessBlock(buf)
	}
}

// BeginBlock recomputes coefficients once if any band parameter changed
// since the last block, per the dirty-flag coalescing rule in
// SPEC_FULL.md §4.3.
func (e *EQ) BeginBlock() {
	if e.dirty.CompareAndSwap(true, false) {
		e.updateFilters()
	}
}

// MagnitudeResponse returns the composite magnitude response (the
// product of enabled bands' magnitudes) at the given frequency, for GUI
// display. Uses channel 0's filters as the reference curve.
func (e *EQ) MagnitudeResponse(frequency float64) float64 {
	mag := 1.0
	for band := 0; band < NumBands; band++ {
		if !e.bands[band].Enabled {
			continue
		}
		mag *= e.filters[0][band].MagnitudeResponse(frequency, e.sampleRate)
	}
	return mag
}

// Reset zeros all filter history across all channels and bands.
func (e *EQ) Reset() {
	for ch := range e.filters {
		e.dcBlockers[ch].Reset()
		for band := 0; band < NumBands; band++ {
			e.filters[ch][band].Reset()
		}
	}
}
