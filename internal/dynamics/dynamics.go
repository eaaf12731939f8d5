// Package dynamics implements the multi-mode dynamics processor
// (compressor, limiter, gate, expander) with optional lookahead,
// per SPEC_FULL.md §4.4.
package dynamics

import (
	"math"
	"sync/atomic"

	"github.com/atomozero/venicedaw-core/internal/dsp"
)

// Mode selects the static gain curve.
type Mode int

const (
	Compressor Mode = iota
	Limiter
	Gate
	Expander
)

// Detection selects the envelope follower's rectification mode.
type Detection int

const (
	Peak Detection = iota
	RMS
	Hybrid
)

const gateFloorDB = -80

// Processor is a per-channel-array dynamics processor.
type Processor struct {
	sampleRate float64

	mode      Mode
	detection Detection
	threshold float32 // dB
	ratio     float32
	attackMs  float32
	releaseMs float32
	knee      float32 // dB
	makeup    float32 // dB

	lookaheadEnabled atomic.Bool
	lookaheadMs      atomic.Uint32 // bits of float32

	envelopes []dsp.EnvelopeFollower
	lookahead []lookaheadChannel

	gainReduction atomic.Uint32 // bits of float32, dB
	inputLevel    atomic.Uint32
	outputLevel   atomic.Uint32

	bypassed atomic.Bool
}

type lookaheadChannel struct {
	buf   []float32
	write int
}

// New creates a processor for the given sample rate and channel count,
// with defaults matching the original: threshold -12dB, ratio 4:1,
// attack 10ms, release 100ms, knee 2dB, RMS detection, no lookahead.
func New(sampleRate float64, channels int) *Processor {
	p := &Processor{
		sampleRate: sampleRate,
		mode:       Compressor,
		detection:  RMS,
		threshold:  -12,
		ratio:      4,
		attackMs:   10,
		releaseMs:  100,
		knee:       2,
		envelopes:  make([]dsp.EnvelopeFollower, channels),
		lookahead:  make([]lookaheadChannel, channels),
	}
	for i := range p.envelopes {
		e := dsp.NewEnvelopeFollower(sampleRate)
		e.SetAttack(float64(p.attackMs))
		e.SetRelease(float64(p.releaseMs))
		e.SetMode(p.detection == RMS)
		p.envelopes[i] = *e
	}
	p.setLookaheadMs(5)
	return p
}

func (p *Processor) setLookaheadMs(ms float32) {
	p.lookaheadMs.Store(math.Float32bits(ms))
	samples := int(math.Ceil(float64(ms) * p.sampleRate / 1000))
	if samples < 1 {
		samples = 1
	}
	for i := range p.lookahead {
		p.lookahead[i] = lookaheadChannel{buf: make([]float32, samples)}
	}
}

// SetMode selects compressor/limiter/gate/expander.
func (p *Processor) SetMode(mode Mode) { p.mode = mode }

// SetDetectionMode selects peak/RMS/hybrid detection.
func (p *Processor) SetDetectionMode(d Detection) {
	p.detection = d
	for i := range p.envelopes {
		p.envelopes[i].SetMode(d == RMS)
	}
}

// SetThreshold sets the threshold in dB.
func (p *Processor) SetThreshold(dB float32) { p.threshold = dB }

// SetRatio sets the compression ratio (ignored for Limiter, which is
// always infinite).
func (p *Processor) SetRatio(ratio float32) {
	if ratio < 1 {
		ratio = 1
	}
	p.ratio = ratio
}

// SetAttack sets attack time in milliseconds.
func (p *Processor) SetAttack(ms float32) {
	p.attackMs = ms
	for i := range p.envelopes {
		p.envelopes[i].SetAttack(float64(ms))
	}
}

// SetRelease sets release time in milliseconds.
func (p *Processor) SetRelease(ms float32) {
	p.releaseMs = ms
	for i := range p.envelopes {
		p.envelopes[i].SetRelease(float64(ms))
	}
}

// SetKnee sets the soft-knee width in dB.
func (p *Processor) SetKnee(dB float32) {
	if dB < 0 {
		dB = 0
	}
	p.knee = dB
}

// SetMakeupGain sets makeup gain in dB, applied after the dynamic curve.
func (p *Processor) SetMakeupGain(dB float32) { p.makeup = dB }

// Threshold returns the current threshold in dB.
func (p *Processor) Threshold() float32 { return p.threshold }

// Ratio returns the current compression ratio.
func (p *Processor) Ratio() float32 { return p.ratio }

// Attack returns the current attack time in milliseconds.
func (p *Processor) Attack() float32 { return p.attackMs }

// Release returns the current release time in milliseconds.
func (p *Processor) Release() float32 { return p.releaseMs }

// Knee returns the current soft-knee width in dB.
func (p *Processor) Knee() float32 { return p.knee }

// MakeupGain returns the current makeup gain in dB.
func (p *Processor) MakeupGain() float32 { return p.makeup }

// LookaheadTimeMs returns the configured lookahead window in milliseconds.
func (p *Processor) LookaheadTimeMs() float32 {
	return math.Float32frombits(p.lookaheadMs.Load())
}

// SetBypassed bypasses the whole processor to identity.
func (p *Processor) SetBypassed(bypassed bool) { p.bypassed.Store(bypassed) }

// Bypassed reports whether the processor is bypassed.
func (p *Processor) Bypassed() bool { return p.bypassed.Load() }

// EnableLookahead turns lookahead on/off; when enabled the dry signal is
// delayed by the configured lookahead time so the detector can act ahead
// of transients.
func (p *Processor) EnableLookahead(enabled bool) { p.lookaheadEnabled.Store(enabled) }

// SetLookaheadTime sets the lookahead window in milliseconds, resizing
// the per-channel ring buffers.
func (p *Processor) SetLookaheadTime(ms float32) { p.setLookaheadMs(ms) }

// LookaheadSamples returns the added latency in samples when lookahead
// is enabled, 0 otherwise — this is what the effect chain reports as
// this effect's latency contribution.
func (p *Processor) LookaheadSamples() int {
	if !p.lookaheadEnabled.Load() {
		return 0
	}
	if len(p.lookahead) == 0 {
		return 0
	}
	return len(p.lookahead[0].buf)
}

// GainReduction returns the most recent block's gain reduction in dB.
func (p *Processor) GainReduction() float32 {
	return math.Float32frombits(p.gainReduction.Load())
}

// InputLevel returns the most recent block's input level meter.
func (p *Processor) InputLevel() float32 {
	return math.Float32frombits(p.inputLevel.Load())
}

// OutputLevel returns the most recent block's output level meter.
func (p *Processor) OutputLevel() float32 {
	return math.Float32frombits(p.outputLevel.Load())
}

// ProcessBlock processes one channel's block in place.
func (p *Processor) ProcessBlock(channel int, buf []float32) {
	if p.bypassed.Load() {
		return
	}

	var peakIn, sumSqIn, peakOut, sumSqOut float32
	lookahead := p.lookaheadEnabled.Load()

	for i, dry := range buf {
		abs := dry
		if abs < 0 {
			abs = -abs
		}
		if abs > peakIn {
			peakIn = abs
		}
		sumSqIn += dry * dry

		detectSample := dry
		outputSample := dry
		if lookahead {
			detectSample, outputSample = p.processLookaheadSample(channel, dry)
		}

		env := p.envelopes[channel].ProcessSample(detectSample)
		envDB := linearToDB(env)
		reductionDB := p.calculateGainReduction(envDB)
		p.gainReduction.Store(math.Float32bits(-reductionDB))

		gainLinear := dbToLinear(-reductionDB + p.makeup)
		out := outputSample * gainLinear

		absOut := out
		if absOut < 0 {
			absOut = -absOut
		}
		if absOut > peakOut {
			peakOut = absOut
		}
		sumSqOut += out * out

		buf[i] = out
	}

	n := float32(len(buf))
	if n > 0 {
		p.inputLevel.Store(math.Float32bits(float32(math.Sqrt(float64(sumSqIn / n)))))
		p.outputLevel.Store(math.Float32bits(float32(math.Sqrt(float64(sumSqOut / n)))))
	}
}

func (p *Processor) processLookaheadSample(channel int, dry float32) (detect, delayed float32) {
	lc := &p.lookahead[channel]
	n := len(lc.buf)
	if n == 0 {
		return dry, dry
	}
	delayed = lc.buf[lc.write]
	lc.buf[lc.write] = dry
	lc.write = (lc.write + 1) % n
	return dry, delayed
}

// calculateGainReduction returns the gain reduction in dB (a positive
// number means "reduce by this many dB") for the given envelope level in
// dB, per the static curves in SPEC_FULL.md §4.4.
func (p *Processor) calculateGainReduction(envDB float32) float32 {
	thr := p.threshold
	knee := p.knee
	ratio := p.ratio

	switch p.mode {
	case Compressor, Limiter:
		effectiveRatio := ratio
		if p.mode == Limiter {
			effectiveRatio = 1000 // effectively infinite
		}
		if knee > 0 && envDB > thr-knee/2 && envDB < thr+knee/2 {
			x := envDB - thr + knee/2
			return (x * x * (1 - 1/effectiveRatio)) / (2 * knee)
		}
		if envDB <= thr {
			return 0
		}
		return (envDB - thr) * (1 - 1/effectiveRatio)

	case Gate:
		if envDB < thr-knee {
			return -gateFloorDB // drive output to gateFloorDB regardless of threshold
		}
		if envDB >= thr {
			return 0
		}
		if knee <= 0 {
			return -gateFloorDB
		}
		x := (envDB - (thr - knee)) / knee
		y := x * x
		return (1 - y) * -gateFloorDB

	case Expander:
		if envDB >= thr {
			return 0
		}
		reduction := (thr - envDB) * (ratio - 1)
		floor := -gateFloorDB
		if reduction > floor {
			reduction = floor
		}
		return reduction

	default:
		return 0
	}
}

// Reset clears all envelope and lookahead state.
func (p *Processor) Reset() {
	for i := range p.envelopes {
		p.envelopes[i].Reset()
	}
	for i := range p.lookahead {
		for j := range p.lookahead[i].buf {
			p.lookahead[i].buf[j] = 0
		}
		p.lookahead[i].write = 0
	}
	p.gainReduction.Store(0)
	p.inputLevel.Store(0)
	p.outputLevel.Store(0)
}

func linearToDB(linear float32) float32 {
	if linear < 1e-10 {
		linear = 1e-10
	}
	return float32(20 * math.Log10(float64(linear)))
}

func dbToLinear(dB float32) float32 {
	return float32(math.Pow(10, float64(dB)/20))
}
