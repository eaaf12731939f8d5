package dsp

import "math"

// ClipType selects the soft clipper's transfer curve.
type ClipType int

const (
	HardClip ClipType = iota
	SoftClip
	Tanh
	Sigmoid
	Polynomial
)

// SoftClipper applies one of five symmetric saturation curves.
type SoftClipper struct {
	kind      ClipType
	threshold float32
	knee      float32
}

// NewSoftClipper creates a clipper of the given kind with the original's
// default threshold (0.9) and knee (0.1).
func NewSoftClipper(kind ClipType) *SoftClipper {
	return &SoftClipper{kind: kind, threshold: 0.9, knee: 0.1}
}

// SetThreshold clamps to [0.01, 1.0].
func (c *SoftClipper) SetThreshold(threshold float32) {
	if threshold < 0.01 {
		threshold = 0.01
	} else if threshold > 1 {
		threshold = 1
	}
	c.threshold = threshold
}

// SetKnee clamps to [0, 0.5].
func (c *SoftClipper) SetKnee(knee float32) {
	if knee < 0 {
		knee = 0
	} else if knee > 0.5 {
		knee = 0.5
	}
	c.knee = knee
}

// SetType changes the active curve.
func (c *SoftClipper) SetType(kind ClipType) {
	c.kind = kind
}

// ProcessSample clips one sample.
func (c *SoftClipper) ProcessSample(input float32) float32 {
	absInput := input
	sign := float32(1)
	if input < 0 {
		absInput = -input
		sign = -1
	}

	switch c.kind {
	case HardClip:
		if absInput > c.threshold {
			absInput = c.threshold
		}
		return sign * absInput

	case SoftClip:
		if absInput <= c.threshold-c.knee {
			return input
		}
		if absInput >= c.threshold+c.knee {
			return sign * c.threshold
		}
		x := (absInput - c.threshold + c.knee) / (2 * c.knee)
		y := 1 - (x-1)*(x-1)
		return sign * (c.threshold - c.knee + 2*c.knee*y)

	case Tanh:
		return c.threshold * float32(math.Tanh(float64(input)/float64(c.threshold)))

	case Sigmoid:
		return c.threshold * (2/(1+float32(math.Exp(-2*float64(input)/float64(c.threshold)))) - 1)

	case Polynomial:
		if absInput <= c.threshold {
			return input
		}
		x := absInput / c.threshold
		y := 1.5*x - 0.5*x*x*x
		if y > 1 {
			y = 1
		}
		return sign * c.threshold * y

	default:
		return input
	}
}

// ProcessBlock clips an entire block in place.
func (c *SoftClipper) ProcessBlock(buf []float32) {
	for i, v := range buf {
		buf[i] = c.ProcessSample(v)
	}
}
