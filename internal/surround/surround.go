// Package surround implements the per-track spatial/surround renderer
// (SPEC_FULL.md §4.5): BasicSurround stereo<->5.1 matrixing, Spatial3D
// distance/doppler/pan rendering, BinauralHRTF convolution, and a
// reserved Ambisonics mode that stubs to BasicSurround.
package surround

import (
	"fmt"
	"sync/atomic"

	"github.com/atomozero/venicedaw-core/internal/buffer"
	"github.com/atomozero/venicedaw-core/internal/dsp"
	"github.com/atomozero/venicedaw-core/internal/errorkind"
	"github.com/atomozero/venicedaw-core/internal/fastmath"
	"github.com/atomozero/venicedaw-core/internal/spatial"
)

// Mode selects the rendering algorithm.
type Mode int

const (
	BasicSurround Mode = iota
	Spatial3D
	BinauralHRTF
	Ambisonics
)

// 5.1 channel plane indices, matching the original's FL,FR,C,LFE,BL,BR
// ordering (confirmed against original_source's ProcessStereoToSurround).
const (
	ChFL = iota
	ChFR
	ChC
	ChLFE
	ChBL
	ChBR
)

// crossfeedCutoffHz is the low-pass cutoff applied to the crossfed signal
// before summing, so crossfeed softens stereo separation without adding
// high-frequency smear.
const crossfeedCutoffHz = 700

// Listener holds the control-side-published listener pose.
type Listener struct {
	Position, Forward, Up, Velocity spatial.Vec3
}

// EnvironmentalParams are per-renderer parameters that update at block
// boundaries only (SPEC_FULL.md §4.5).
type EnvironmentalParams struct {
	RoomWidth, RoomHeight, RoomDepth float32
	ReverbAmount, ReverbDecay        float32
	Humidity                        float32 // percent, used by air absorption
	SpeedOfSound                    float32 // m/s
}

func defaultEnvironment() EnvironmentalParams {
	return EnvironmentalParams{
		RoomWidth: 10, RoomHeight: 3, RoomDepth: 10,
		ReverbAmount: 0, ReverbDecay: 0.5,
		Humidity: 50, SpeedOfSound: 343,
	}
}

// Renderer is a per-track spatial/surround processor.
type Renderer struct {
	sampleRate float64
	mode       Mode
	layout     buffer.ChannelLayout

	env      EnvironmentalParams
	envDirty atomic.Bool

	crossfeedAmount float32
	crossfeedL      dsp.Biquad
	crossfeedR      dsp.Biquad

	airAbsorptionEnabled bool
	dopplerEnabled       bool
	airLP                dsp.Biquad
	dopplerDelay         dsp.DelayLine

	convL, convR dsp.ConvolutionEngine
	itdDelayL    dsp.DelayLine
	itdDelayR    dsp.DelayLine
}

// New creates a renderer defaulting to BasicSurround/Stereo layout.
func New(sampleRate float64) *Renderer {
	r := &Renderer{
		sampleRate:   sampleRate,
		mode:         BasicSurround,
		layout:       buffer.Stereo,
		env:          defaultEnvironment(),
		dopplerDelay: *dsp.NewDelayLine(int(sampleRate * 0.05)),
		itdDelayL:    *dsp.NewDelayLine(int(sampleRate * 0.01)),
		itdDelayR:    *dsp.NewDelayLine(int(sampleRate * 0.01)),
	}
	r.crossfeedL.CalculateCoefficients(dsp.LowPass, sampleRate, crossfeedCutoffHz, 0.707, 0)
	r.crossfeedR.CalculateCoefficients(dsp.LowPass, sampleRate, crossfeedCutoffHz, 0.707, 0)
	r.airLP.CalculateCoefficients(dsp.LowPass, sampleRate, 20000, 0.707, 0)

	left, right := DefaultHRTF()
	r.convL = *dsp.NewConvolutionEngine(512)
	r.convR = *dsp.NewConvolutionEngine(512)
	r.convL.SetImpulseResponse(left)
	r.convR.SetImpulseResponse(right)

	return r
}

// SetMode selects the rendering algorithm for subsequent blocks.
func (r *Renderer) SetMode(mode Mode) { r.mode = mode }

// RenderMode returns the current rendering mode.
func (r *Renderer) RenderMode() Mode { return r.mode }

// SetChannelLayout stores the target channel layout. Atmos is accepted
// as a configuration value (it must not be rejected outright) but this
// renderer has no object-audio downmix defined for it; SetChannelLayout
// reports that as an error while still recording the layout, per
// SPEC_FULL.md §9 Open Question 1.
func (r *Renderer) SetChannelLayout(layout buffer.ChannelLayout) error {
	r.layout = layout
	if layout == buffer.Atmos {
		return fmt.Errorf("%w: Atmos rendering not defined", errorkind.ErrConfigurationInvalid)
	}
	return nil
}

// ChannelLayout returns the currently configured layout.
func (r *Renderer) ChannelLayout() buffer.ChannelLayout { return r.layout }

// SetCrossfeed sets the headphone crossfeed amount in [0,1], clamped.
func (r *Renderer) SetCrossfeed(amount float32) {
	if amount < 0 {
		amount = 0
	} else if amount > 1 {
		amount = 1
	}
	r.crossfeedAmount = amount
}

// SetEnvironment replaces the environmental parameters; the next render
// call uses the new values. It also raises the flag BeginBlock clears.
func (r *Renderer) SetEnvironment(env EnvironmentalParams) {
	r.env = env
	r.envDirty.Store(true)
}

// Environment returns the currently configured environmental parameters.
func (r *Renderer) Environment() EnvironmentalParams { return r.env }

// SetHRTF installs a new HRTF impulse response pair, replacing the
// default. Rejects mismatched or empty pairs, keeping the previously
// loaded response, per SPEC_FULL.md §4.10 ("HRTF load failure: keep
// previous HRTF; report via a status flag").
func (r *Renderer) SetHRTF(left, right []float32) error {
	if len(left) == 0 || len(right) == 0 || len(left) != len(right) {
		return errorkind.ErrHRTFInvalid
	}
	r.convL.SetImpulseResponse(left)
	r.convR.SetImpulseResponse(right)
	return nil
}

// EnableAirAbsorption toggles the distance-dependent low-pass in
// Spatial3D mode.
func (r *Renderer) EnableAirAbsorption(enabled bool) { r.airAbsorptionEnabled = enabled }

// EnableDoppler toggles doppler pitch shift in Spatial3D mode.
func (r *Renderer) EnableDoppler(enabled bool) { r.dopplerEnabled = enabled }

// BeginBlock clears the environment-changed flag raised by
// SetEnvironment; the parameters themselves are already in effect.
func (r *Renderer) BeginBlock() {
	r.envDirty.Store(false)
}

// UpmixStereoToSurround fills a Surround51 buffer from a stereo pair,
// per SPEC_FULL.md §4.5's BasicSurround matrix.
func UpmixStereoToSurround(left, right []float32, out *buffer.MultichannelBuffer) {
	fl, fr := out.Channel(ChFL), out.Channel(ChFR)
	c, lfe := out.Channel(ChC), out.Channel(ChLFE)
	bl, br := out.Channel(ChBL), out.Channel(ChBR)
	for i := range left {
		fl[i] = left[i]
		fr[i] = right[i]
		c[i] = (left[i] + right[i]) * 0.707
		lfe[i] = 0
		bl[i] = left[i] * 0.3
		br[i] = right[i] * 0.3
	}
}

// DownmixSurroundToStereo folds a Surround51 buffer back to a stereo
// pair, per SPEC_FULL.md §4.5.
func DownmixSurroundToStereo(in *buffer.MultichannelBuffer, outL, outR []float32) {
	fl, fr := in.Channel(ChFL), in.Channel(ChFR)
	c := in.Channel(ChC)
	bl, br := in.Channel(ChBL), in.Channel(ChBR)
	for i := range outL {
		outL[i] = fl[i] + c[i]*0.707 + bl[i]
		outR[i] = fr[i] + c[i]*0.707 + br[i]
	}
}

// ApplyCrossfeed cross-sums a low-passed fraction of each channel into
// the other, for headphone listening comfort.
func (r *Renderer) ApplyCrossfeed(left, right []float32) {
	if r.crossfeedAmount <= 0 {
		return
	}
	for i := range left {
		l, rr := left[i], right[i]
		fl := r.crossfeedL.ProcessSample(rr)
		fr := r.crossfeedR.ProcessSample(l)
		left[i] = l + r.crossfeedAmount*fl
		right[i] = rr + r.crossfeedAmount*fr
	}
}

// RenderTrack dispatches to the configured mode, converting a mono
// source into a stereo pair relative to the listener.
func (r *Renderer) RenderTrack(mono []float32, sourcePos, sourceVelocity spatial.Vec3, listener Listener, outL, outR []float32) {
	switch r.mode {
	case Spatial3D:
		r.renderSpatial3D(mono, sourcePos, sourceVelocity, listener, outL, outR)
	case BinauralHRTF:
		r.renderBinauralHRTF(mono, sourcePos, listener, outL, outR)
	case Ambisonics:
		// Reserved: stub to the BasicSurround equal-gain mono-to-stereo case.
		fallthrough
	case BasicSurround:
		copy(outL, mono)
		copy(outR, mono)
	}
}

func (r *Renderer) renderSpatial3D(mono []float32, sourcePos, sourceVelocity spatial.Vec3, listener Listener, outL, outR []float32) {
	sph := spatial.RelativePosition(sourcePos, listener.Position, listener.Forward, listener.Up)
	atten := spatial.DistanceAttenuation(sph.Distance, 1.0)

	if r.airAbsorptionEnabled {
		cutoff := spatial.AirAbsorptionCutoff(sph.Distance, r.env.Humidity)
		r.airLP.CalculateCoefficients(dsp.LowPass, r.sampleRate, float64(cutoff), 0.707, 0)
	}

	pan := clampF(fastmath.Sin(sph.Azimuth), -1, 1)
	gL, gR := fastmath.PanGains(pan)

	ratio := float32(1.0)
	if r.dopplerEnabled {
		toListener := listener.Position.Sub(sourcePos).Normalize()
		ratio = spatial.DopplerShiftRatio(sourceVelocity, listener.Velocity, toListener, r.env.SpeedOfSound)
		if ratio < 0.5 {
			ratio = 0.5
		} else if ratio > 2.0 {
			ratio = 2.0
		}
	}

	if r.dopplerEnabled {
		// A fixed nominal delay whose depth varies with the doppler ratio:
		// faster relative closing speed reads a shorter delay (pitch up).
		const nominalDelayMs = 10
		delaySamples := float32(nominalDelayMs/1000*r.sampleRate) / ratio
		r.dopplerDelay.SetDelay(delaySamples)
	}

	for i, s := range mono {
		sample := s
		if r.airAbsorptionEnabled {
			sample = r.airLP.ProcessSample(sample)
		}
		if r.dopplerEnabled {
			sample = r.dopplerDelay.ProcessSample(sample)
		}
		sample *= atten
		outL[i] = sample * gL
		outR[i] = sample * gR
	}
}

func (r *Renderer) renderBinauralHRTF(mono []float32, sourcePos spatial.Vec3, listener Listener, outL, outR []float32) {
	sph := spatial.RelativePosition(sourcePos, listener.Position, listener.Forward, listener.Up)

	r.convL.ProcessBlock(mono, outL)
	r.convR.ProcessBlock(mono, outR)

	itd := spatial.InterauralTimeDifference(sph.Azimuth, r.env.SpeedOfSound)
	ild := spatial.InterauralLevelDifference(sph.Azimuth, sph.Elevation)

	baseDelaySamples := float32(0.0005 * r.sampleRate) // small fixed floor, avoids a zero-delay read
	// itd is positive for a source to the right, which reaches the left
	// ear later: delay the left ear by half the ITD more, the right less.
	itdSamples := itd * float32(r.sampleRate)
	r.itdDelayL.SetDelay(baseDelaySamples + itdSamples/2)
	r.itdDelayR.SetDelay(baseDelaySamples - itdSamples/2)

	for i := range outL {
		l := r.itdDelayL.ProcessSample(outL[i])
		rr := r.itdDelayR.ProcessSample(outR[i])
		if sph.Azimuth > 0 {
			// source to the right: attenuate the far (left) ear.
			l *= 1 - ild
		} else if sph.Azimuth < 0 {
			rr *= 1 - ild
		}
		outL[i], outR[i] = l, rr
	}
}

// Reset clears all internal filter/delay state.
func (r *Renderer) Reset() {
	r.crossfeedL.Reset()
	r.crossfeedR.Reset()
	r.airLP.Reset()
	r.dopplerDelay.Reset()
	r.convL.Reset()
	r.convR.Reset()
	r.itdDelayL.Reset()
	r.itdDelayR.Reset()
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
