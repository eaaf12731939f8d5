package engine

import "testing"

func TestStatusReflectsTrackCountAndRunning(t *testing.T) {
	e := New(sampleRate, blockSize)
	if got := e.Status(); got.Running || got.TrackCount != 0 {
		t.Fatalf("expected a fresh engine to report stopped with no tracks, got %+v", got)
	}

	id := e.AddTrack()
	e.Start()
	got := e.Status()
	if !got.Running {
		t.Fatalf("expected Running=true after Start()")
	}
	if got.TrackCount != 1 {
		t.Fatalf("expected TrackCount=1, got %d", got.TrackCount)
	}

	e.RemoveTrack(id)
	if got := e.Status(); got.TrackCount != 0 {
		t.Fatalf("expected TrackCount=0 after RemoveTrack, got %d", got.TrackCount)
	}
}

func TestStatusReportsDroppedFramesAndMeters(t *testing.T) {
	e := newRunningEngine(t)
	e.ReportUnderrun()
	e.ReportUnderrun()

	buf := make([]float32, blockSize*2)
	e.ProcessBlock(buf, blockSize)

	got := e.Status()
	if got.DroppedFrames != 2 {
		t.Fatalf("expected DroppedFrames=2, got %d", got.DroppedFrames)
	}
}
