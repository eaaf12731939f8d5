package track

import "github.com/atomozero/venicedaw-core/internal/fastmath"

// Waveform selects a track's built-in test-signal oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	WhiteNoise
	PinkNoise
)

// oscillator holds the per-track phase/noise state for the built-in test
// signals (SPEC_FULL.md §4.6). Sine uses fastmath's 4096-entry LUT;
// square/saw are derived from the same phase accumulator; white noise
// uses a private xorshift32 generator (no shared global RNG state, so
// tracks never contend with each other); pink noise runs Paul Kellet's
// 7-state refined filter over that white noise.
type oscillator struct {
	phase     float32
	noiseSeed uint32
	pink      [7]float32
}

func newOscillator() oscillator {
	return oscillator{noiseSeed: 0x9e3779b9}
}

// next advances the oscillator by one sample at the given frequency and
// sample rate, returning the selected waveform's output in [-1, 1].
func (o *oscillator) next(wave Waveform, frequency float32, sampleRate float64) float32 {
	const twoPi = 2 * 3.14159265358979323846

	switch wave {
	case Sine:
		s := fastmath.Sin(o.phase)
		o.advancePhase(frequency, sampleRate, twoPi)
		return s
	case Square:
		s := fastmath.Sin(o.phase)
		o.advancePhase(frequency, sampleRate, twoPi)
		if s >= 0 {
			return 1
		}
		return -1
	case Saw:
		s := float32(2*(o.phase/twoPi) - 1)
		o.advancePhase(frequency, sampleRate, twoPi)
		return s
	case WhiteNoise:
		return o.whiteNoise()
	case PinkNoise:
		return o.pinkNoise()
	default:
		return 0
	}
}

func (o *oscillator) advancePhase(frequency float32, sampleRate float64, twoPi float32) {
	o.phase += frequency * twoPi / float32(sampleRate)
	o.phase = fastmath.WrapPhase(o.phase)
}

// whiteNoise returns a uniform sample in [-1, 1] via xorshift32.
func (o *oscillator) whiteNoise() float32 {
	x := o.noiseSeed
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	o.noiseSeed = x
	return float32(x)/float32(1<<31) - 1
}

// pinkNoise filters whiteNoise through Paul Kellet's refined 7-state
// approximation of 1/f noise.
func (o *oscillator) pinkNoise() float32 {
	white := o.whiteNoise()
	b := &o.pink
	b[0] = 0.99886*b[0] + white*0.0555179
	b[1] = 0.99332*b[1] + white*0.0750759
	b[2] = 0.96900*b[2] + white*0.1538520
	b[3] = 0.86650*b[3] + white*0.3104856
	b[4] = 0.55000*b[4] + white*0.5329522
	b[5] = -0.7616*b[5] - white*0.0168980
	pink := b[0] + b[1] + b[2] + b[3] + b[4] + b[5] + b[6] + white*0.5362
	b[6] = white * 0.115926
	return pink * 0.11 // empirical scale to keep output near [-1,1]
}

// reset clears all oscillator state.
func (o *oscillator) reset() {
	*o = newOscillator()
}
