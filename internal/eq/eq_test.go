package eq

import (
	"math"
	"testing"

	"github.com/atomozero/venicedaw-core/internal/dsp"
)

func TestDefaultBandLayout(t *testing.T) {
	e := New(44100, 2)
	if e.Band(0).Enabled || e.Band(0).Frequency != 60 {
		t.Fatalf("band 0 should be disabled 60Hz high-pass, got %+v", e.Band(0))
	}
	if e.Band(7).Enabled || e.Band(7).Frequency != 16000 {
		t.Fatalf("band 7 should be disabled 16kHz low-pass, got %+v", e.Band(7))
	}
	want := [6]float32{150, 500, 1000, 2000, 4000, 8000}
	for i, f := range want {
		if !e.Band(i + 1).Enabled || e.Band(i+1).Frequency != f {
			t.Fatalf("band %d expected enabled at %v, got %+v", i+1, f, e.Band(i+1))
		}
	}
}

func TestBypassIsIdentity(t *testing.T) {
	e := New(44100, 1)
	e.BeginBlock()
	e.SetBypassed(true)
	in := []float32{0.1, -0.2, 0.3, 0.4}
	buf := append([]float32(nil), in...)
	e.ProcessBlock(0, buf)
	for i := range in {
		if buf[i] != in[i] {
			t.Fatalf("bypass not identity at %d: %v != %v", i, buf[i], in[i])
		}
	}
}

func TestSetBandClampsRanges(t *testing.T) {
	e := New(44100, 1)
	e.SetBand(1, 50000, 100, 0.01)
	b := e.Band(1)
	if b.Frequency != 20000 {
		t.Fatalf("frequency not clamped: %v", b.Frequency)
	}
	if b.Gain != 24 {
		t.Fatalf("gain not clamped: %v", b.Gain)
	}
	if b.Q != 0.1 {
		t.Fatalf("Q not clamped: %v", b.Q)
	}
}

func TestDirtyFlagCoalescesAtBlockStart(t *testing.T) {
	e := New(44100, 1)
	e.BeginBlock()
	// after BeginBlock, coefficients exist; changing several band params
	// within a block should only recompute once at next BeginBlock.
	e.SetBand(1, 2000, 6, 1.0)
	e.SetBand(2, 3000, -6, 1.0)
	e.BeginBlock()
	resp := e.MagnitudeResponse(2000)
	if math.IsNaN(resp) {
		t.Fatalf("expected valid magnitude response after recompute")
	}
}

func TestAllBandsDisabledIsIdentityAfterDCSettle(t *testing.T) {
	e := New(44100, 1)
	for i := 0; i < NumBands; i++ {
		e.SetBandEnabled(i, false)
	}
	e.BeginBlock()
	buf := make([]float32, 20000)
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 44100))
	}
	in := append([]float32(nil), buf...)
	e.ProcessBlock(0, buf)
	// after DC-blocker settling (~200ms @ 44.1kHz is ~8800 samples) tail
	// should track input closely.
	for i := 15000; i < len(buf); i++ {
		if diff := float64(buf[i] - in[i]); diff > 1e-3 || diff < -1e-3 {
			t.Fatalf("sample %d diverged post-settle: %v vs %v", i, buf[i], in[i])
		}
	}
}

func TestBandTypeChangeMarksDirty(t *testing.T) {
	e := New(44100, 1)
	e.BeginBlock()
	e.SetBandType(1, dsp.LowShelf)
	if e.Band(1).Type != dsp.LowShelf {
		t.Fatalf("band type not updated")
	}
	if !e.dirty.Load() {
		t.Fatalf("expected band type change to raise the dirty flag")
	}
}
