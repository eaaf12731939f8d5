package audiodevice

import (
	"testing"
	"time"
)

type fakeSource struct {
	fill float32
}

func (f *fakeSource) ProcessBlock(out []float32, frames int) {
	for i := range out {
		out[i] = f.fill
	}
}

type fakeReporter struct {
	count int
}

func (r *fakeReporter) ReportUnderrun() { r.count++ }

func newTestSink(sampleRate int, src Source) *OtoSink {
	s := &OtoSink{
		sampleRate:    sampleRate,
		sampleBuf:     make([]float32, 4096),
		underrunAfter: 5 * time.Millisecond,
	}
	s.source.Store(&src)
	return s
}

func TestReadFillsBufferFromSource(t *testing.T) {
	src := &fakeSource{fill: 0.25}
	s := newTestSink(44100, src)
	p := make([]byte, 64) // 16 float32s = 8 stereo frames
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("unexpected Read result n=%d err=%v", n, err)
	}
}

func TestReadWithNilSourceProducesSilence(t *testing.T) {
	s := &OtoSink{sampleRate: 44100, sampleBuf: make([]float32, 64)}
	p := make([]byte, 64)
	for i := range p {
		p[i] = 0xFF
	}
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("unexpected Read result n=%d err=%v", n, err)
	}
	for i, b := range p {
		if b != 0 {
			t.Fatalf("expected silence byte at %d, got %v", i, b)
		}
	}
}

func TestIsUnderrunDetectsExcessiveGap(t *testing.T) {
	expected := 10 * time.Millisecond
	tolerance := 5 * time.Millisecond
	if isUnderrun(12*time.Millisecond, expected, tolerance) {
		t.Fatalf("a gap within tolerance should not be reported as an underrun")
	}
	if !isUnderrun(20*time.Millisecond, expected, tolerance) {
		t.Fatalf("a gap beyond tolerance should be reported as an underrun")
	}
}

func TestExpectedReadPeriodMatchesFrameMath(t *testing.T) {
	got := expectedReadPeriod(8*100, 44100) // 100 stereo frames
	want := 100 * time.Second / 44100
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestReadReportsUnderrunAfterLongGap(t *testing.T) {
	src := &fakeSource{fill: 0}
	s := newTestSink(44100, src)
	rep := &fakeReporter{}
	s.SetUnderrunReporter(rep)

	p := make([]byte, 8*4) // four stereo float32 frames, expected period near-zero
	s.Read(p)
	time.Sleep(10 * time.Millisecond)
	s.Read(p)
	if rep.count == 0 {
		t.Fatalf("expected an underrun to be reported after a large artificial gap")
	}
}
