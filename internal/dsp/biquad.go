// Package dsp implements the core signal-processing primitives: biquad
// filters, a DC blocker, an envelope follower, a soft clipper, an
// all-pass filter, a fractional-delay delay line, and a convolution
// engine.
package dsp

import "math"

// FilterType selects the biquad coefficient formula.
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	BandPass
	Notch
	Peak
	LowShelf
	HighShelf
	AllPass
)

// Biquad is a direct-form-I second-order IIR filter. Coefficients are
// always normalized so a0 == 1; only five values are stored.
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32
	x1, x2     float32
	y1, y2     float32
}

// SetCoefficients installs raw (a0,a1,a2,b0,b1,b2) and normalizes so
// a0 == 1.
func (bq *Biquad) SetCoefficients(a0, a1, a2, b0, b1, b2 float32) {
	if a0 != 0 {
		inv := 1 / a0
		bq.b0 = b0 * inv
		bq.b1 = b1 * inv
		bq.b2 = b2 * inv
		bq.a1 = a1 * inv
		bq.a2 = a2 * inv
	} else {
		bq.b0, bq.b1, bq.b2 = b0, b1, b2
		bq.a1, bq.a2 = a1, a2
	}
}

// CalculateCoefficients derives (a,b) from the RBJ Audio EQ Cookbook
// formulas for the given filter kind, sample rate, center frequency, Q,
// and gain (gain only matters for Peak/LowShelf/HighShelf).
func (bq *Biquad) CalculateCoefficients(kind FilterType, sampleRate, frequency, q, gainDB float64) {
	omega := 2 * math.Pi * frequency / sampleRate
	sinW := math.Sin(omega)
	cosW := math.Cos(omega)
	alpha := sinW / (2 * q)
	a := math.Pow(10, gainDB/40)

	var a0, a1, a2, b0, b1, b2 float64 = 1, 0, 0, 1, 0, 0

	switch kind {
	case LowPass:
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosW
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	case Peak:
		b0 = 1 + alpha*a
		b1 = -2 * cosW
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW
		a2 = 1 - alpha/a
	case LowShelf:
		sqrtA := math.Sqrt(a)
		sqrtA2Alpha := 2 * sqrtA * alpha
		b0 = a * ((a + 1) - (a-1)*cosW + sqrtA2Alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW)
		b2 = a * ((a + 1) - (a-1)*cosW - sqrtA2Alpha)
		a0 = (a + 1) + (a-1)*cosW + sqrtA2Alpha
		a1 = -2 * ((a - 1) + (a+1)*cosW)
		a2 = (a + 1) + (a-1)*cosW - sqrtA2Alpha
	case HighShelf:
		sqrtA := math.Sqrt(a)
		sqrtA2Alpha := 2 * sqrtA * alpha
		b0 = a * ((a + 1) + (a-1)*cosW + sqrtA2Alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW)
		b2 = a * ((a + 1) + (a-1)*cosW - sqrtA2Alpha)
		a0 = (a + 1) - (a-1)*cosW + sqrtA2Alpha
		a1 = 2 * ((a - 1) - (a+1)*cosW)
		a2 = (a + 1) - (a-1)*cosW - sqrtA2Alpha
	case AllPass:
		b0 = 1 - alpha
		b1 = -2 * cosW
		b2 = 1 + alpha
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha
	}

	bq.SetCoefficients(float32(a0), float32(a1), float32(a2), float32(b0), float32(b1), float32(b2))
}

// ProcessSample filters a single sample.
func (bq *Biquad) ProcessSample(input float32) float32 {
	output := bq.b0*input + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2 = bq.x1
	bq.x1 = input
	bq.y2 = bq.y1
	bq.y1 = output
	return output
}

// ProcessBlock filters an entire block in place.
func (bq *Biquad) ProcessBlock(buf []float32) {
	for i, v := range buf {
		buf[i] = bq.ProcessSample(v)
	}
}

// Reset zeros the filter's history, leaving coefficients untouched.
func (bq *Biquad) Reset() {
	bq.x1, bq.x2, bq.y1, bq.y2 = 0, 0, 0, 0
}

// Coefficients returns the normalized (a0==1 implicit) coefficients.
func (bq *Biquad) Coefficients() (b0, b1, b2, a1, a2 float32) {
	return bq.b0, bq.b1, bq.b2, bq.a1, bq.a2
}

// MagnitudeResponse evaluates |H(e^{jω})| at the given frequency for the
// given sample rate, analytically from the stored coefficients.
func (bq *Biquad) MagnitudeResponse(frequency, sampleRate float64) float64 {
	re, im := bq.frequencyResponse(frequency, sampleRate)
	return math.Sqrt(re*re + im*im)
}

// PhaseResponse returns the phase, in radians, of H(e^{jω}) at frequency.
func (bq *Biquad) PhaseResponse(frequency, sampleRate float64) float64 {
	omega := 2 * math.Pi * frequency / sampleRate
	cosW, sinW := math.Cos(omega), math.Sin(omega)
	cos2W, sin2W := math.Cos(2*omega), math.Sin(2*omega)

	b0, b1, b2, a1, a2 := float64(bq.b0), float64(bq.b1), float64(bq.b2), float64(bq.a1), float64(bq.a2)
	realNum := b0 + b1*cosW + b2*cos2W
	imagNum := b1*sinW + b2*sin2W
	realDen := 1 + a1*cosW + a2*cos2W
	imagDen := a1*sinW + a2*sin2W

	return math.Atan2(imagNum, realNum) - math.Atan2(imagDen, realDen)
}

func (bq *Biquad) frequencyResponse(frequency, sampleRate float64) (re, im float64) {
	omega := 2 * math.Pi * frequency / sampleRate
	cosW, sinW := math.Cos(omega), math.Sin(omega)
	cos2W, sin2W := math.Cos(2*omega), math.Sin(2*omega)

	b0, b1, b2, a1, a2 := float64(bq.b0), float64(bq.b1), float64(bq.b2), float64(bq.a1), float64(bq.a2)
	realNum := b0 + b1*cosW + b2*cos2W
	imagNum := b1*sinW + b2*sin2W
	realDen := 1 + a1*cosW + a2*cos2W
	imagDen := a1*sinW + a2*sin2W

	denMagSq := realDen*realDen + imagDen*imagDen
	if denMagSq <= 1e-10 {
		return 0, 0
	}
	re = (realNum*realDen + imagNum*imagDen) / denMagSq
	im = (imagNum*realDen - realNum*imagDen) / denMagSq
	return re, im
}
