package engine

import (
	"testing"

	"github.com/atomozero/venicedaw-core/internal/paramqueue"
	"github.com/atomozero/venicedaw-core/internal/spatial"
	"github.com/atomozero/venicedaw-core/internal/surround"
	"pgregory.net/rapid"
)

const sampleRate = 44100.0
const blockSize = 128

func newRunningEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(sampleRate, blockSize)
	e.Start()
	return e
}

func TestStoppedEngineProducesSilence(t *testing.T) {
	e := New(sampleRate, blockSize)
	id := e.AddTrack()
	e.Track(id).Play()
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence before Start(), got nonzero at %d: %v", i, v)
		}
	}
}

func TestRunningEngineMixesAPlayingTrack(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	var sum float32
	for _, v := range out {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	if sum == 0 {
		t.Fatalf("expected a playing track to produce nonzero output")
	}
}

func TestMutedTrackIsSilent(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	tr := e.Track(id)
	tr.Play()
	tr.Mute = true
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	for _, v := range out {
		if v != 0 {
			t.Fatalf("expected muted track to contribute nothing, got %v", v)
		}
	}
}

func TestSoloOverridesMuteAndSilencesOthers(t *testing.T) {
	e := newRunningEngine(t)
	a := e.AddTrack()
	b := e.AddTrack()
	e.Track(a).Play()
	e.Track(a).Solo = true
	e.Track(b).Play()
	e.Track(b).Mute = false

	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	var sum float32
	for _, v := range out {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	if sum == 0 {
		t.Fatalf("soloed track should still produce output")
	}

	e.Track(a).Solo = false
	e.Track(a).Mute = true
	out2 := make([]float32, blockSize*2)
	e.ProcessBlock(out2, blockSize)
	var sum2 float32
	for _, v := range out2 {
		if v < 0 {
			v = -v
		}
		sum2 += v
	}
	if sum2 == 0 {
		t.Fatalf("track b alone should still be audible once a is muted and unsoloed")
	}
}

func TestFirstSoloSeenWinsOnTies(t *testing.T) {
	e := newRunningEngine(t)
	a := e.AddTrack()
	b := e.AddTrack()
	e.Track(a).Play()
	e.Track(a).Solo = true
	e.Track(b).Play()
	e.Track(b).Solo = true

	id, active := e.firstSolo()
	if !active || id != a {
		t.Fatalf("expected track %d (lowest id, first seen) to win solo, got id=%d active=%v", a, id, active)
	}
}

func TestMasterVolumeScalesOutput(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()

	out1 := make([]float32, blockSize*2)
	e.ProcessBlock(out1, blockSize)

	e2 := newRunningEngine(t)
	id2 := e2.AddTrack()
	e2.Track(id2).Play()
	e2.SetMasterVolume(0)
	out2 := make([]float32, blockSize*2)
	e2.ProcessBlock(out2, blockSize)

	for _, v := range out2 {
		if v != 0 {
			t.Fatalf("zero master volume should silence the mix, got %v", v)
		}
	}
}

func TestMasterMeterTracksPeak(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	if e.MasterPeak() <= 0 {
		t.Fatalf("expected a positive master peak after mixing an active track")
	}
}

func TestQueuedVolumeUpdateIsAppliedAtNextBlock(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()

	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.TrackVolume, TrackID: id, Float: 0})
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	for _, v := range out {
		if v != 0 {
			t.Fatalf("queued zero-volume update should silence the track by the next block, got %v", v)
		}
	}
}

func TestQueuedMuteUpdateIsApplied(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()
	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.TrackMute, TrackID: id, Bool: true})
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	for _, v := range out {
		if v != 0 {
			t.Fatalf("queued mute should silence the track, got %v", v)
		}
	}
}

func TestAddAndRemoveTrackViaQueue(t *testing.T) {
	e := newRunningEngine(t)
	slot := e.PrepareTrackSlot()
	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.AddTrack, Payload: slot})
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	if len(e.tracks) != 1 {
		t.Fatalf("expected AddTrack update to add a track, have %d", len(e.tracks))
	}
	id := e.tracks[0].track.ID
	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.RemoveTrack, TrackID: id})
	e.ProcessBlock(out, blockSize)
	if len(e.tracks) != 0 {
		t.Fatalf("expected RemoveTrack update to remove the track, have %d", len(e.tracks))
	}
}

func TestAddTrackViaQueueDropsWhenAtCapacity(t *testing.T) {
	e := newRunningEngine(t)
	out := make([]float32, blockSize*2)

	// Drain in chunks smaller than the queue capacity and the per-block
	// drain limit, since both bound how many AddTrack updates can be
	// enqueued and applied in one pass.
	added := 0
	for added < maxTracks {
		batch := maxTracks - added
		if batch > 32 {
			batch = 32
		}
		for i := 0; i < batch; i++ {
			e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.AddTrack, Payload: e.PrepareTrackSlot()})
		}
		e.ProcessBlock(out, blockSize)
		added += batch
	}
	if len(e.tracks) != maxTracks {
		t.Fatalf("expected engine to fill to maxTracks=%d, have %d", maxTracks, len(e.tracks))
	}

	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.AddTrack, Payload: e.PrepareTrackSlot()})
	e.ProcessBlock(out, blockSize)
	if len(e.tracks) != maxTracks {
		t.Fatalf("expected extra AddTrack beyond maxTracks to be dropped, have %d", len(e.tracks))
	}
	if e.TracksDropped() != 1 {
		t.Fatalf("expected TracksDropped() == 1, got %d", e.TracksDropped())
	}
}

func TestStopClearsRunningFlag(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	e.Track(id).Play()
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	e.Stop()
	if e.Running() {
		t.Fatalf("expected engine to report not running after Stop")
	}
}

func TestReportUnderrunIncrementsCounter(t *testing.T) {
	e := New(sampleRate, blockSize)
	if e.DroppedFrames() != 0 {
		t.Fatalf("expected zero dropped frames initially")
	}
	e.ReportUnderrun()
	e.ReportUnderrun()
	if e.DroppedFrames() != 2 {
		t.Fatalf("expected 2 dropped frames, got %d", e.DroppedFrames())
	}
}

// TestSoloPrecedenceIsAlwaysLowestSoloedID is a property check over random
// solo/mute configurations: whichever subset of tracks is soloed, the
// audible set is always exactly the lowest-id soloed track (never more
// than one track when any solo is active).
func TestSoloPrecedenceIsAlwaysLowestSoloedID(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(sampleRate, blockSize)
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		soloed := make([]bool, n)
		anySolo := false
		lowest := -1
		for i := 0; i < n; i++ {
			id := e.AddTrack()
			tr := e.Track(id)
			tr.Play()
			s := rapid.Bool().Draw(rt, "solo")
			tr.Solo = s
			soloed[i] = s
			if s && !anySolo {
				lowest = id
				anySolo = true
			} else if s && lowest > id {
				lowest = id
			}
		}

		winID, active := e.firstSolo()
		if active != anySolo {
			rt.Fatalf("active=%v want %v", active, anySolo)
		}
		if anySolo && winID != lowest {
			rt.Fatalf("winner=%d want lowest soloed id=%d", winID, lowest)
		}
	})
}

// TestParameterQueueUpdatesAreAppliedAtomicallyPerBlock checks that an
// arbitrary sequence of enqueued volume updates for one track is always
// fully drained by the next ProcessBlock call, leaving no partial state
// visible in between blocks (SPEC_FULL.md §8 scenario 7).
func TestParameterQueueUpdatesAreAppliedAtomicallyPerBlock(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newRunningEngine(t)
		id := e.AddTrack()
		e.Track(id).Play()

		volumes := rapid.SliceOfN(rapid.Float32Range(0, 2), 1, 8).Draw(rt, "volumes")
		for _, v := range volumes {
			e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.TrackVolume, TrackID: id, Float: v})
		}
		out := make([]float32, blockSize*2)
		e.ProcessBlock(out, blockSize)

		want := volumes[len(volumes)-1]
		if got := e.Track(id).Volume; got != want {
			rt.Fatalf("expected the last enqueued volume %v to win by the next block, got %v", want, got)
		}
		if e.Queue().Dropped() != 0 && len(volumes) <= 64 {
			rt.Fatalf("unexpected drops for a small burst under the per-block drain cap")
		}
	})
}

func TestListenerAtSourcePositionRendersWithoutPanic(t *testing.T) {
	e := newRunningEngine(t)
	id := e.AddTrack()
	tr := e.Track(id)
	tr.Play()
	tr.Position = spatial.Vec3{Y: 1}
	e.TrackSpatial(id).SetMode(surround.BinauralHRTF)

	e.Queue().Enqueue(paramqueue.Update{Kind: paramqueue.ListenerPosition, Vec1: spatial.Vec3{Y: 1}})
	out := make([]float32, blockSize*2)
	e.ProcessBlock(out, blockSize)
	_ = out // listener now coincides with the source; no panics/NaNs is the property under test
}
