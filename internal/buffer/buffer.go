// Package buffer defines the multichannel, non-interleaved float buffer
// shared by the effect chain, the surround renderer, and the mixing
// engine.
package buffer

import "fmt"

// ChannelLayout tags a channel configuration with its channel count.
type ChannelLayout int

const (
	Mono       ChannelLayout = 1
	Stereo     ChannelLayout = 2
	Surround51 ChannelLayout = 6
	Surround71 ChannelLayout = 8
	Atmos      ChannelLayout = 16
)

// ChannelCount returns the integer channel count payload of the layout.
func (l ChannelLayout) ChannelCount() int {
	return int(l)
}

// String names the layout for logs and diagnostics.
func (l ChannelLayout) String() string {
	switch l {
	case Mono:
		return "Mono"
	case Stereo:
		return "Stereo"
	case Surround51:
		return "Surround51"
	case Surround71:
		return "Surround71"
	case Atmos:
		return "Atmos"
	default:
		return fmt.Sprintf("ChannelLayout(%d)", int(l))
	}
}

// MultichannelBuffer holds N frames of non-interleaved float32 audio
// across the channel planes implied by its layout. Invariant: the
// number of planes equals layout.ChannelCount(), and every plane has
// length Frames.
type MultichannelBuffer struct {
	Layout     ChannelLayout
	Frames     int
	SampleRate float64
	planes     [][]float32
}

// New allocates a buffer with layout.ChannelCount() zeroed planes of the
// given frame count.
func New(layout ChannelLayout, frames int, sampleRate float64) *MultichannelBuffer {
	planes := make([][]float32, layout.ChannelCount())
	for i := range planes {
		planes[i] = make([]float32, frames)
	}
	return &MultichannelBuffer{Layout: layout, Frames: frames, SampleRate: sampleRate, planes: planes}
}

// Channel returns the plane for the given channel index.
func (b *MultichannelBuffer) Channel(i int) []float32 {
	return b.planes[i]
}

// ChannelCount returns the number of planes, which must equal
// b.Layout.ChannelCount().
func (b *MultichannelBuffer) ChannelCount() int {
	return len(b.planes)
}

// Clear zeros every plane.
func (b *MultichannelBuffer) Clear() {
	for _, p := range b.planes {
		for i := range p {
			p[i] = 0
		}
	}
}

// Resize changes the frame count of every plane, reallocating as needed.
func (b *MultichannelBuffer) Resize(frames int) {
	if frames == b.Frames {
		return
	}
	for i, p := range b.planes {
		if cap(p) >= frames {
			b.planes[i] = p[:frames]
		} else {
			b.planes[i] = make([]float32, frames)
		}
	}
	b.Frames = frames
}
