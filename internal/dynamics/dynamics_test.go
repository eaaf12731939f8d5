package dynamics

import (
	"math"
	"testing"
)

func dBToLin(dB float64) float32 { return float32(math.Pow(10, dB/20)) }

func feedConstant(p *Processor, level float32, n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = level
	}
	p.ProcessBlock(0, buf)
	return buf
}

func TestCompressorStaticGainAboveThreshold(t *testing.T) {
	p := New(44100, 1)
	p.SetThreshold(-12)
	p.SetRatio(4)
	p.SetKnee(0)
	p.SetAttack(1)
	p.SetRelease(1)

	in := dBToLin(-6)
	var buf []float32
	for i := 0; i < 20; i++ {
		buf = feedConstant(p, in, 2048)
	}
	out := buf[len(buf)-1]
	outDB := 20 * math.Log10(float64(out))
	// -6dB in at thresh=-12, ratio 4:1 -> reduction (6dB)*(1-1/4) = 4.5dB,
	// so output should settle near -10.5dB.
	if outDB < -11.5 || outDB > -9.5 {
		t.Fatalf("expected steady-state near -10.5dB, got %.2fdB", outDB)
	}
}

func TestLimiterClampsAboveThreshold(t *testing.T) {
	p := New(44100, 1)
	p.SetMode(Limiter)
	p.SetThreshold(-3)
	p.SetKnee(0)
	p.SetAttack(1)
	p.SetRelease(5)

	in := dBToLin(0)
	var buf []float32
	for i := 0; i < 50; i++ {
		buf = feedConstant(p, in, 1024)
	}
	peak := float32(0)
	for _, s := range buf {
		if s > peak {
			peak = s
		}
	}
	peakDB := 20 * math.Log10(float64(peak))
	if peakDB > -2.5 {
		t.Fatalf("limiter did not clamp to near threshold, got %.2fdB", peakDB)
	}
}

func TestGateSilencesBelowThreshold(t *testing.T) {
	p := New(44100, 1)
	p.SetMode(Gate)
	p.SetThreshold(-40)
	p.SetKnee(0)
	p.SetAttack(1)
	p.SetRelease(1)

	in := dBToLin(-60)
	var buf []float32
	for i := 0; i < 50; i++ {
		buf = feedConstant(p, in, 1024)
	}
	last := buf[len(buf)-1]
	if last > in*0.5 {
		t.Fatalf("gate did not attenuate below-threshold signal: %v vs in %v", last, in)
	}

	// A fully closed gate must drive reduction to the fixed -80dB floor
	// regardless of the configured threshold, not -80dB offset by it.
	if gr := p.GainReduction(); gr > -79 || gr < -81 {
		t.Fatalf("expected fully closed gate reduction near -80dB floor, got %.2fdB", gr)
	}
}

func TestGateFloorIsThresholdIndependent(t *testing.T) {
	for _, thr := range []float32{-10, -40, -70} {
		p := New(44100, 1)
		p.SetMode(Gate)
		p.SetThreshold(thr)
		p.SetKnee(0)
		p.SetAttack(1)
		p.SetRelease(1)

		in := dBToLin(float64(thr) - 30)
		for i := 0; i < 50; i++ {
			feedConstant(p, in, 1024)
		}
		if gr := p.GainReduction(); gr > -79 || gr < -81 {
			t.Fatalf("threshold %v: expected -80dB floor independent of threshold, got %.2fdB", thr, gr)
		}
	}
}

func TestExpanderPassesAboveThreshold(t *testing.T) {
	p := New(44100, 1)
	p.SetMode(Expander)
	p.SetThreshold(-20)
	p.SetRatio(2)
	p.SetAttack(1)
	p.SetRelease(1)

	in := dBToLin(-6)
	var buf []float32
	for i := 0; i < 30; i++ {
		buf = feedConstant(p, in, 1024)
	}
	last := buf[len(buf)-1]
	ratio := last / in
	if ratio < 0.9 || ratio > 1.1 {
		t.Fatalf("expander should pass signal above threshold near unity, got ratio %v", ratio)
	}
}

func TestBypassIsIdentity(t *testing.T) {
	p := New(44100, 1)
	p.SetBypassed(true)
	in := []float32{0.1, -0.2, 0.3}
	buf := append([]float32(nil), in...)
	p.ProcessBlock(0, buf)
	for i := range in {
		if buf[i] != in[i] {
			t.Fatalf("bypass not identity at %d", i)
		}
	}
}

func TestLookaheadAddsLatencySamples(t *testing.T) {
	p := New(44100, 1)
	if n := p.LookaheadSamples(); n != 0 {
		t.Fatalf("expected 0 latency when lookahead disabled, got %d", n)
	}
	p.EnableLookahead(true)
	p.SetLookaheadTime(5)
	want := int(math.Ceil(5 * 44100 / 1000.0))
	if n := p.LookaheadSamples(); n != want {
		t.Fatalf("expected %d lookahead samples, got %d", want, n)
	}
}

func TestMakeupGainAppliedUniformly(t *testing.T) {
	p := New(44100, 1)
	p.SetThreshold(0) // far above the -20dBFS test signal, so no gain reduction
	p.SetMakeupGain(6)
	in := dBToLin(-20)
	buf := feedConstant(p, in, 4096)
	out := buf[len(buf)-1]
	gotDB := 20 * math.Log10(float64(out/in))
	if gotDB < 5.5 || gotDB > 6.5 {
		t.Fatalf("expected ~6dB makeup applied, got %.2fdB", gotDB)
	}
}

func TestResetClearsMeters(t *testing.T) {
	p := New(44100, 1)
	feedConstant(p, dBToLin(-3), 2048)
	p.Reset()
	if p.GainReduction() != 0 || p.InputLevel() != 0 || p.OutputLevel() != 0 {
		t.Fatalf("reset did not clear meters")
	}
}
