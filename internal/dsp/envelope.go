package dsp

import "math"

// EnvelopeFollower tracks signal level with independent attack/release
// time constants, in either peak or RMS mode.
type EnvelopeFollower struct {
	sampleRate   float64
	attackCoeff  float32
	releaseCoeff float32
	envelope     float32
	rmsMode      bool
}

// NewEnvelopeFollower creates a follower with 10ms attack / 100ms
// release defaults, matching the original's constructor defaults.
func NewEnvelopeFollower(sampleRate float64) *EnvelopeFollower {
	e := &EnvelopeFollower{sampleRate: sampleRate}
	e.SetAttack(10)
	e.SetRelease(100)
	return e
}

// SetAttack sets the attack time constant in milliseconds.
func (e *EnvelopeFollower) SetAttack(attackMs float64) {
	samples := (attackMs * 0.001) * e.sampleRate
	e.attackCoeff = float32(1 - math.Exp(-1/samples))
}

// SetRelease sets the release time constant in milliseconds.
func (e *EnvelopeFollower) SetRelease(releaseMs float64) {
	samples := (releaseMs * 0.001) * e.sampleRate
	e.releaseCoeff = float32(1 - math.Exp(-1/samples))
}

// SetMode selects RMS (true) or peak (false) detection.
func (e *EnvelopeFollower) SetMode(rms bool) {
	e.rmsMode = rms
}

// ProcessSample updates and returns the envelope for one input sample.
func (e *EnvelopeFollower) ProcessSample(input float32) float32 {
	var rectified float32
	if e.rmsMode {
		rectified = input * input
	} else if input < 0 {
		rectified = -input
	} else {
		rectified = input
	}

	if rectified > e.envelope {
		e.envelope += e.attackCoeff * (rectified - e.envelope)
	} else {
		e.envelope += e.releaseCoeff * (rectified - e.envelope)
	}

	if e.rmsMode {
		return float32(math.Sqrt(float64(e.envelope)))
	}
	return e.envelope
}

// ProcessBlock writes the envelope for each input sample into out.
func (e *EnvelopeFollower) ProcessBlock(in, out []float32) {
	for i, v := range in {
		out[i] = e.ProcessSample(v)
	}
}

// Reset zeros the envelope state.
func (e *EnvelopeFollower) Reset() {
	e.envelope = 0
}
