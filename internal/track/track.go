// Package track implements the per-track test-signal generator and
// file-backed playback cursor (SPEC_FULL.md §4.6), plus the track-level
// pan/volume/attenuation stage applied after generation.
package track

import (
	"fmt"

	"github.com/atomozero/venicedaw-core/internal/errorkind"
	"github.com/atomozero/venicedaw-core/internal/fastmath"
	"github.com/atomozero/venicedaw-core/internal/spatial"
)

// Source selects whether a track generates a test waveform or pulls
// frames from a FrameDecoder.
type Source int

const (
	Generator Source = iota
	FileBacked
)

// Track is one mixer input: a sample source plus the pan/volume/position
// state the engine reads each block. All fields are owned and mutated
// exclusively by the audio thread; the control domain only ever reaches
// them through paramqueue updates applied at block boundaries.
type Track struct {
	ID int

	source   Source
	waveform Waveform
	osc      oscillator
	decoder  FrameDecoder
	playing  bool

	Frequency float32
	Volume    float32 // linear gain, clamped [0, 2]
	Pan       float32 // [-1, 1]
	Mute      bool
	Solo      bool

	Position Vec3Alias
	Velocity Vec3Alias
}

// Vec3Alias avoids an import cycle concern at the package boundary while
// keeping the field type identical to spatial.Vec3.
type Vec3Alias = spatial.Vec3

// New creates a generator-backed track with sensible defaults: sine
// wave, A440, unity volume, centered pan, not playing.
func New(id int) *Track {
	return &Track{
		ID:        id,
		source:    Generator,
		waveform:  Sine,
		osc:       newOscillator(),
		Frequency: 440,
		Volume:    1,
		Pan:       0,
	}
}

// SetWaveform switches a generator-backed track's oscillator type.
func (t *Track) SetWaveform(wave Waveform) {
	t.source = Generator
	t.waveform = wave
}

// SetDecoder switches a track to file-backed playback using decoder.
func (t *Track) SetDecoder(decoder FrameDecoder) {
	t.source = FileBacked
	t.decoder = decoder
}

// SetVolume clamps and stores a linear gain, range [0, 2].
func (t *Track) SetVolume(linear float32) {
	if linear < 0 {
		linear = 0
	} else if linear > 2 {
		linear = 2
	}
	t.Volume = linear
}

// SetPan clamps and stores the pan position.
func (t *Track) SetPan(pan float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	t.Pan = pan
}

// Play arms a track for generation/playback; Stop silences it and, for
// file-backed tracks, leaves the decoder position where it stopped.
func (t *Track) Play() { t.playing = true }
func (t *Track) Stop() { t.playing = false }

// Playing reports whether the track is currently armed.
func (t *Track) Playing() bool { return t.playing }

// Rearm restarts a file-backed track's decoder from the beginning and,
// once the decoder has rewound, arms the track for playback again.
func (t *Track) Rearm() error {
	if t.decoder == nil {
		return nil
	}
	if err := t.decoder.Rearm(); err != nil {
		return err
	}
	t.playing = true
	return nil
}

// Generate fills buf with one block of raw mono samples (before
// pan/volume/attenuation), per SPEC_FULL.md §4.6. A stopped track, or a
// file-backed track whose decoder has ended, outputs silence.
func (t *Track) Generate(buf []float32, sampleRate float64) error {
	if !t.playing {
		zero(buf)
		return nil
	}

	switch t.source {
	case Generator:
		for i := range buf {
			buf[i] = t.osc.next(t.waveform, t.Frequency, sampleRate)
		}
		return nil

	case FileBacked:
		if t.decoder == nil {
			zero(buf)
			return nil
		}
		n, err := t.decoder.Decode(buf)
		if n < len(buf) {
			zero(buf[n:])
		}
		if err != nil {
			t.playing = false
			return fmt.Errorf("%w", errorkind.ErrDecodeEnded)
		}
		return nil

	default:
		zero(buf)
		return nil
	}
}

// ApplyPanVolumeAttenuation converts a mono block into a stereo pair,
// applying equal-power pan, linear volume, and an inverse-distance
// attenuation factor computed from the track's position relative to
// listenerPos, in that order, per SPEC_FULL.md §4.6.
func (t *Track) ApplyPanVolumeAttenuation(mono []float32, listenerPos spatial.Vec3, outL, outR []float32) {
	gL, gR := fastmath.PanGains(t.Pan)
	distance := t.Position.Distance(listenerPos)
	atten := spatial.DistanceAttenuation(distance, 1.0)
	gain := t.Volume * atten
	for i, s := range mono {
		v := fastmath.FlushDenormal(s * gain)
		outL[i] = v * gL
		outR[i] = v * gR
	}
}

// Reset clears oscillator phase/noise state.
func (t *Track) Reset() {
	t.osc.reset()
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
