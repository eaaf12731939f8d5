package audiodevice

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingSource struct {
	calls atomic.Int64
}

func (s *countingSource) ProcessBlock(out []float32, frames int) {
	s.calls.Add(1)
}

func TestNullSinkCallsSourceWhileStarted(t *testing.T) {
	src := &countingSource{}
	sink := NewNullSink(44100, 64, src)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	sink.Stop()
	if src.calls.Load() == 0 {
		t.Fatalf("expected at least one ProcessBlock call while started")
	}
}

func TestNullSinkStopsCallingAfterStop(t *testing.T) {
	src := &countingSource{}
	sink := NewNullSink(44100, 64, src)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	sink.Stop()
	after := src.calls.Load()
	time.Sleep(10 * time.Millisecond)
	if src.calls.Load() != after {
		t.Fatalf("expected no further calls after Stop, got %d more", src.calls.Load()-after)
	}
}

func TestNullSinkCloseIsIdempotentAfterStop(t *testing.T) {
	src := &countingSource{}
	sink := NewNullSink(44100, 64, src)
	if err := sink.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sink.Stop()
	sink.Close()
}
