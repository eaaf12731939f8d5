package dsp

import "math"

// DCBlocker is a one-pole high-pass: y[n] = x[n] - x[n-1] + R*y[n-1].
type DCBlocker struct {
	x1, y1 float32
	r      float32
}

// NewDCBlocker creates a DC blocker with the given cutoff and sample rate.
func NewDCBlocker(cutoffHz, sampleRate float64) *DCBlocker {
	d := &DCBlocker{}
	d.SetCutoff(cutoffHz, sampleRate)
	return d
}

// SetCutoff recomputes R = 1 - pi*fc/Fs, clamped to [0, 0.9999].
func (d *DCBlocker) SetCutoff(cutoffHz, sampleRate float64) {
	r := 1 - math.Pi*cutoffHz/sampleRate
	if r < 0 {
		r = 0
	} else if r > 0.9999 {
		r = 0.9999
	}
	d.r = float32(r)
}

// ProcessSample filters one sample.
func (d *DCBlocker) ProcessSample(input float32) float32 {
	output := input - d.x1 + d.r*d.y1
	d.x1 = input
	d.y1 = output
	return output
}

// ProcessBlock filters an entire block in place.
func (d *DCBlocker) ProcessBlock(buf []float32) {
	for i, v := range buf {
		buf[i] = d.ProcessSample(v)
	}
}

// Reset zeros history.
func (d *DCBlocker) Reset() {
	d.x1, d.y1 = 0, 0
}
