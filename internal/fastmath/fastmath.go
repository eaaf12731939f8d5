// Package fastmath provides the small set of numeric helpers shared by
// every hot-path DSP routine in the engine: a sine lookup table, a tanh
// lookup table, phase wrapping, and equal-power pan gain.
package fastmath

import "math"

const (
	sinLUTSize  = 4096
	tanhLUTSize = 4096
	tanhLUTMin  = -4.0
	tanhLUTMax  = 4.0
)

var sinLUT [sinLUTSize + 1]float32
var tanhLUT [tanhLUTSize + 1]float32

func init() {
	for i := 0; i <= sinLUTSize; i++ {
		phase := float64(i) / float64(sinLUTSize) * 2 * math.Pi
		sinLUT[i] = float32(math.Sin(phase))
	}
	for i := 0; i <= tanhLUTSize; i++ {
		x := tanhLUTMin + (tanhLUTMax-tanhLUTMin)*float64(i)/float64(tanhLUTSize)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// Sin returns sin(phase) for phase in radians, via the 4096-entry table
// with linear interpolation. phase need not be pre-wrapped.
func Sin(phase float32) float32 {
	const twoPi = 2 * math.Pi
	wrapped := phase - twoPi*float32(math.Floor(float64(phase)/twoPi))
	pos := wrapped * (sinLUTSize / twoPi)
	idx := int(pos)
	frac := pos - float32(idx)
	return sinLUT[idx] + (sinLUT[idx+1]-sinLUT[idx])*frac
}

// Tanh returns an approximation of tanh(x) via lookup with linear
// interpolation, saturating to ±1 outside the table's domain.
func Tanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1
	}
	if x >= tanhLUTMax {
		return 1
	}
	pos := (x - tanhLUTMin) * (tanhLUTSize / (tanhLUTMax - tanhLUTMin))
	idx := int(pos)
	frac := pos - float32(idx)
	return tanhLUT[idx] + (tanhLUT[idx+1]-tanhLUT[idx])*frac
}

// WrapPhase wraps a phase accumulator into [0, 2π) using floor-based
// modulo, avoiding the drift that repeated subtraction introduces.
func WrapPhase(phase float32) float32 {
	const twoPi = 2 * math.Pi
	if phase >= 0 && phase < twoPi {
		return phase
	}
	return phase - twoPi*float32(math.Floor(float64(phase)/twoPi))
}

// PanGains returns the (left, right) gain pair for equal-power panning.
// pan is clamped to [-1, 1]; theta = (pan+1)*pi/4 so that gains are
// cos(theta), sin(theta) and L^2+R^2 is constant across the pan range.
func PanGains(pan float32) (left, right float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	theta := float64(pan+1) * math.Pi / 4
	return float32(math.Cos(theta)), float32(math.Sin(theta))
}

// FlushDenormal returns 0 if x is a subnormal float32, else x unchanged.
// Called after multiply chains on the audio thread to avoid the CPU
// penalty of denormal arithmetic (teacher's clampF32 does the equivalent
// clamp for its own mix path in audio_chip.go).
func FlushDenormal(x float32) float32 {
	const denormalThreshold = 1e-30
	if x > -denormalThreshold && x < denormalThreshold {
		return 0
	}
	return x
}
