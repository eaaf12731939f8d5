// Package engine implements the mixing engine (SPEC_FULL.md §4.7): the
// real-time audio callback that drains the parameter queue, generates
// and processes every track, mixes to a stereo master bus, and updates
// the meter atomics the control domain reads.
package engine

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/atomozero/venicedaw-core/internal/dynamics"
	"github.com/atomozero/venicedaw-core/internal/effects"
	"github.com/atomozero/venicedaw-core/internal/eq"
	"github.com/atomozero/venicedaw-core/internal/fastmath"
	"github.com/atomozero/venicedaw-core/internal/paramqueue"
	"github.com/atomozero/venicedaw-core/internal/spatial"
	"github.com/atomozero/venicedaw-core/internal/surround"
	"github.com/atomozero/venicedaw-core/internal/track"
)

// defaultMaxDrainPerBlock bounds the parameter-queue work the audio
// callback performs each block (SPEC_FULL.md §4.7 step 1).
const defaultMaxDrainPerBlock = 64

// maxTracks bounds the engine's track slice capacity, fixed at
// construction time, so splicing a prepared track slot in via append
// never grows (and therefore never reallocates) the backing array on
// the audio thread. Spec.md §7's "ResourceExhausted — ... track count at
// max" is this bound: once reached, splicing a new track is a no-op
// beyond the counter below.
const maxTracks = 256

// trackState bundles one mixer input with its effect chain and spatial
// renderer, all owned and mutated exclusively by the audio thread.
type trackState struct {
	track   *track.Track
	effects *effects.Chain
	spatial *surround.Renderer
}

// Engine is the real-time mixing engine. Every exported method except
// the constructors and ProcessBlock is intended to be called only from
// the control domain through the parameter queue's apply path, or before
// Start(); ProcessBlock is the audio thread's only entry point.
type Engine struct {
	sampleRate float64
	blockSize  int

	tracks        []*trackState
	nextTrackID   atomic.Int32
	tracksDropped atomic.Uint64

	queue            *paramqueue.Queue
	maxDrainPerBlock int

	listener surround.Listener

	masterVolume atomic.Uint32 // bits of float32, linear gain
	running      atomic.Bool
	droppedFrames atomic.Uint64

	masterPeak atomic.Uint32
	masterRMS  atomic.Uint32
	trackCount atomic.Int32

	scratchMono []float32
	scratchL    []float32
	scratchR    []float32
	masterL     []float32
	masterR     []float32
}

// New creates an engine for the given sample rate and block size, with
// unity master volume and an empty track list.
func New(sampleRate float64, blockSize int) *Engine {
	e := &Engine{
		sampleRate:       sampleRate,
		blockSize:        blockSize,
		queue:            paramqueue.NewQueue(),
		maxDrainPerBlock: defaultMaxDrainPerBlock,
		listener: surround.Listener{
			Forward: spatial.Vec3{Y: 1},
			Up:      spatial.Vec3{Z: 1},
		},
		tracks:      make([]*trackState, 0, maxTracks),
		scratchMono: make([]float32, blockSize),
		scratchL:    make([]float32, blockSize),
		scratchR:    make([]float32, blockSize),
		masterL:     make([]float32, blockSize),
		masterR:     make([]float32, blockSize),
	}
	e.masterVolume.Store(math.Float32bits(1.0))
	return e
}

// Queue returns the engine's parameter queue, the control domain's only
// entry point into the audio thread's state.
func (e *Engine) Queue() *paramqueue.Queue { return e.queue }

// SetMaxDrainPerBlock overrides the per-block parameter-drain bound;
// call only before Start().
func (e *Engine) SetMaxDrainPerBlock(n int) { e.maxDrainPerBlock = n }

// AddTrack builds a new track with its own effect chain and spatial
// renderer and appends it directly, returning its id. This allocates,
// so it is for control-domain setup only (before Start(), or any other
// caller not running on the audio thread) — never called from
// ProcessBlock's apply path. The real-time equivalent is
// PrepareTrackSlot + the parameter queue's AddTrack update.
func (e *Engine) AddTrack() int {
	ts := e.buildTrackState()
	e.tracks = append(e.tracks, ts)
	e.trackCount.Store(int32(len(e.tracks)))
	return ts.track.ID
}

func (e *Engine) buildTrackState() *trackState {
	id := int(e.nextTrackID.Add(1)) - 1
	ts := &trackState{
		track:   track.New(id),
		effects: effects.NewChain(),
		spatial: surround.New(e.sampleRate),
	}
	ts.effects.Add(effects.NewEQEffect(eq.New(e.sampleRate, 1)))
	ts.effects.Add(effects.NewDynamicsEffect(dynamics.New(e.sampleRate, 1)))
	return ts
}

// PrepareTrackSlot allocates a new track, effect chain, and spatial
// renderer ahead of time, ready to be spliced into the engine with no
// further construction. Call this from the control domain, then enqueue
// the returned slot as a parameter-queue AddTrack update's Payload
// (paramqueue.Update{Kind: paramqueue.AddTrack, Payload: slot}):
// ProcessBlock's apply path only appends the already-built pointer, so
// the audio thread performs no allocation of its own.
func (e *Engine) PrepareTrackSlot() any {
	return e.buildTrackState()
}

// spliceTrack appends a pre-built trackState (from PrepareTrackSlot)
// into the fixed-capacity track slice. The slice is pre-sized to
// maxTracks at construction, so this append never reallocates; once at
// capacity, the slot is dropped and counted rather than constructing or
// growing anything, per spec.md's ResourceExhausted "track count at
// max" kind.
func (e *Engine) spliceTrack(ts *trackState) {
	if len(e.tracks) >= maxTracks {
		e.tracksDropped.Add(1)
		return
	}
	e.tracks = append(e.tracks, ts)
	e.trackCount.Store(int32(len(e.tracks)))
}

// TracksDropped returns the count of prepared track slots that could not
// be spliced in because the engine was already at maxTracks.
func (e *Engine) TracksDropped() uint64 { return e.tracksDropped.Load() }

// RemoveTrack deletes the track with the given id, if present. This
// shrinks the slice in place (no allocation) and is safe to call from
// ProcessBlock's apply path.
func (e *Engine) RemoveTrack(id int) {
	for i, ts := range e.tracks {
		if ts.track.ID == id {
			e.tracks = append(e.tracks[:i], e.tracks[i+1:]...)
			e.trackCount.Store(int32(len(e.tracks)))
			return
		}
	}
}

// Track returns the track with the given id, or nil.
func (e *Engine) Track(id int) *track.Track {
	if ts := e.findTrack(id); ts != nil {
		return ts.track
	}
	return nil
}

// TrackEffects returns the effect chain for the given track id, or nil.
func (e *Engine) TrackEffects(id int) *effects.Chain {
	if ts := e.findTrack(id); ts != nil {
		return ts.effects
	}
	return nil
}

// TrackSpatial returns the spatial renderer for the given track id, or nil.
func (e *Engine) TrackSpatial(id int) *surround.Renderer {
	if ts := e.findTrack(id); ts != nil {
		return ts.spatial
	}
	return nil
}

func (e *Engine) findTrack(id int) *trackState {
	for _, ts := range e.tracks {
		if ts.track.ID == id {
			return ts
		}
	}
	return nil
}

// SetMasterVolume sets the master linear gain, clamped to [0, 4].
func (e *Engine) SetMasterVolume(linear float32) {
	if linear < 0 {
		linear = 0
	} else if linear > 4 {
		linear = 4
	}
	e.masterVolume.Store(math.Float32bits(linear))
}

// MasterPeak returns the most recent block's master peak level.
func (e *Engine) MasterPeak() float32 { return math.Float32frombits(e.masterPeak.Load()) }

// MasterRMS returns the most recent block's master RMS level.
func (e *Engine) MasterRMS() float32 { return math.Float32frombits(e.masterRMS.Load()) }

// DroppedFrames returns the cumulative underrun counter.
func (e *Engine) DroppedFrames() uint64 { return e.droppedFrames.Load() }

// ReportUnderrun is called by the audio device backend when it detects
// the host skipped a callback period, per SPEC_FULL.md §4.10.
func (e *Engine) ReportUnderrun() { e.droppedFrames.Add(1) }

// Running reports whether the engine is started.
func (e *Engine) Running() bool { return e.running.Load() }

// Start configures the engine to begin producing audio.
func (e *Engine) Start() { e.running.Store(true) }

// Stop clears running, waits one callback period so any in-flight
// callback finishes against a consistent running flag, then resets all
// DSP state, per SPEC_FULL.md §4.7.
func (e *Engine) Stop() {
	e.running.Store(false)
	time.Sleep(e.blockPeriod())
	for _, ts := range e.tracks {
		ts.track.Reset()
		ts.effects.Reset()
		ts.spatial.Reset()
	}
}

func (e *Engine) blockPeriod() time.Duration {
	return time.Duration(float64(e.blockSize) / e.sampleRate * float64(time.Second))
}

// ProcessBlock is the audio device callback's entry point: it fills out
// (interleaved stereo, len(out) == 2*frames) with exactly frames frames
// of mixed audio. It never locks, allocates, or performs I/O.
func (e *Engine) ProcessBlock(out []float32, frames int) {
	if !e.running.Load() || frames != e.blockSize {
		for i := range out {
			out[i] = 0
		}
		return
	}

	e.queue.DrainUpTo(e.maxDrainPerBlock, e.applyUpdate)

	for i := range e.masterL {
		e.masterL[i] = 0
		e.masterR[i] = 0
	}

	soloID, soloActive := e.firstSolo()

	for _, ts := range e.tracks {
		audible := true
		if soloActive {
			audible = ts.track.ID == soloID
		} else if ts.track.Mute {
			audible = false
		}
		if !audible {
			continue
		}

		ts.track.Generate(e.scratchMono, e.sampleRate)
		ts.effects.BeginBlock()
		ts.effects.ProcessBlock(0, e.scratchMono, e.blockPeriod())

		if mode := ts.spatial.RenderMode(); mode == surround.BasicSurround || mode == surround.Ambisonics {
			ts.track.ApplyPanVolumeAttenuation(e.scratchMono, e.listener.Position, e.scratchL, e.scratchR)
		} else {
			ts.spatial.RenderTrack(e.scratchMono, ts.track.Position, ts.track.Velocity, e.listener, e.scratchL, e.scratchR)
			for i := range e.scratchL {
				e.scratchL[i] *= ts.track.Volume
				e.scratchR[i] *= ts.track.Volume
			}
		}

		for i := range e.masterL {
			e.masterL[i] += e.scratchL[i]
			e.masterR[i] += e.scratchR[i]
		}
	}

	masterVol := math.Float32frombits(e.masterVolume.Load())
	var peak, sumSq float32
	for i := 0; i < frames; i++ {
		l := fastmath.FlushDenormal(e.masterL[i] * masterVol)
		r := fastmath.FlushDenormal(e.masterR[i] * masterVol)

		if a := abs32(l); a > peak {
			peak = a
		}
		if a := abs32(r); a > peak {
			peak = a
		}
		sumSq += l*l + r*r

		out[2*i] = l
		out[2*i+1] = r
	}

	e.masterPeak.Store(math.Float32bits(peak))
	if frames > 0 {
		rms := float32(math.Sqrt(float64(sumSq) / float64(2*frames)))
		e.masterRMS.Store(math.Float32bits(rms))
	}
}

// firstSolo returns the lowest-id soloed track, if any is soloed, per
// SPEC_FULL.md §4.7's "ties in solo are broken by lowest id; the first
// solo seen wins" tie-break.
func (e *Engine) firstSolo() (id int, active bool) {
	for _, ts := range e.tracks {
		if ts.track.Solo {
			return ts.track.ID, true
		}
	}
	return 0, false
}

func (e *Engine) applyUpdate(u paramqueue.Update) {
	switch u.Kind {
	case paramqueue.TrackPosition:
		if t := e.Track(u.TrackID); t != nil {
			t.Position = u.Vec1
		}
	case paramqueue.TrackVelocity:
		if t := e.Track(u.TrackID); t != nil {
			t.Velocity = u.Vec1
		}
	case paramqueue.TrackVolume:
		if t := e.Track(u.TrackID); t != nil {
			t.SetVolume(u.Float)
		}
	case paramqueue.TrackPan:
		if t := e.Track(u.TrackID); t != nil {
			t.SetPan(u.Float)
		}
	case paramqueue.TrackMute:
		if t := e.Track(u.TrackID); t != nil {
			t.Mute = u.Bool
		}
	case paramqueue.TrackSolo:
		if t := e.Track(u.TrackID); t != nil {
			t.Solo = u.Bool
		}
	case paramqueue.ListenerPosition:
		e.listener.Position = u.Vec1
	case paramqueue.ListenerOrientation:
		e.listener.Forward = u.Vec1
		e.listener.Up = u.Vec2
	case paramqueue.RoomSize:
		// Room geometry is shared environment state, not per-track, so a
		// negative TrackID (the global-update convention) applies it to
		// every track's renderer; a specific TrackID applies it to just
		// that one, for per-track environment overrides.
		apply := func(ts *trackState) {
			env := ts.spatial.Environment()
			env.RoomWidth, env.RoomHeight, env.RoomDepth = u.Vec1.X, u.Vec1.Y, u.Vec1.Z
			ts.spatial.SetEnvironment(env)
		}
		if u.TrackID < 0 {
			for _, ts := range e.tracks {
				apply(ts)
			}
		} else if ts := e.findTrack(u.TrackID); ts != nil {
			apply(ts)
		}
	case paramqueue.EQBand:
		if ts := e.findTrack(u.TrackID); ts != nil && ts.effects.Len() > 0 {
			ts.effects.At(0).SetParam(fmt.Sprintf("band%d.%s", u.Band, u.Field), float64(u.Float))
		}
	case paramqueue.DynamicsParam:
		if ts := e.findTrack(u.TrackID); ts != nil && ts.effects.Len() > 1 {
			ts.effects.At(1).SetParam(u.Field, float64(u.Float))
		}
	case paramqueue.HRTFConfig:
		if ts := e.findTrack(u.TrackID); ts != nil && u.HRTF != nil {
			ts.spatial.SetHRTF(u.HRTF.Left, u.HRTF.Right)
		}
	case paramqueue.MasterVolume:
		e.SetMasterVolume(u.Float)
	case paramqueue.TransportStart:
		e.running.Store(true)
	case paramqueue.TransportStop:
		e.running.Store(false)
	case paramqueue.TransportReset:
		for _, ts := range e.tracks {
			ts.track.Reset()
		}
	case paramqueue.AddTrack:
		if ts, ok := u.Payload.(*trackState); ok {
			e.spliceTrack(ts)
		}
	case paramqueue.RemoveTrack:
		e.RemoveTrack(u.TrackID)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
