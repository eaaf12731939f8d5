package effects

import "github.com/atomozero/venicedaw-core/internal/dynamics"

// DynamicsEffect adapts internal/dynamics.Processor to the Effect
// interface.
type DynamicsEffect struct {
	proc *dynamics.Processor
}

// NewDynamicsEffect wraps an existing dynamics Processor.
func NewDynamicsEffect(p *dynamics.Processor) *DynamicsEffect {
	return &DynamicsEffect{proc: p}
}

func (d *DynamicsEffect) Name() string { return "Dynamics" }

func (d *DynamicsEffect) BeginBlock() {}

func (d *DynamicsEffect) ProcessBlock(channel int, buf []float32) { d.proc.ProcessBlock(channel, buf) }

func (d *DynamicsEffect) Reset() { d.proc.Reset() }

func (d *DynamicsEffect) Bypassed() bool { return d.proc.Bypassed() }

func (d *DynamicsEffect) SetBypassed(bypassed bool) { d.proc.SetBypassed(bypassed) }

func (d *DynamicsEffect) LatencySamples() int { return d.proc.LookaheadSamples() }

func (d *DynamicsEffect) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "threshold", Min: -60, Max: 0, DefaultValue: -12},
		{Name: "ratio", Min: 1, Max: 20, DefaultValue: 4},
		{Name: "attack", Min: 0.1, Max: 500, DefaultValue: 10},
		{Name: "release", Min: 1, Max: 2000, DefaultValue: 100},
		{Name: "knee", Min: 0, Max: 24, DefaultValue: 2},
		{Name: "makeup", Min: -12, Max: 24, DefaultValue: 0},
		{Name: "lookahead_ms", Min: 0, Max: 20, DefaultValue: 5},
	}
}

func (d *DynamicsEffect) GetParam(name string) (float64, bool) {
	switch name {
	case "threshold":
		return float64(d.proc.Threshold()), true
	case "ratio":
		return float64(d.proc.Ratio()), true
	case "attack":
		return float64(d.proc.Attack()), true
	case "release":
		return float64(d.proc.Release()), true
	case "knee":
		return float64(d.proc.Knee()), true
	case "makeup":
		return float64(d.proc.MakeupGain()), true
	case "lookahead_ms":
		return float64(d.proc.LookaheadTimeMs()), true
	default:
		return 0, false
	}
}

func (d *DynamicsEffect) SetParam(name string, value float64) bool {
	v := float32(value)
	switch name {
	case "threshold":
		d.proc.SetThreshold(min(max(v, -60), 0))
	case "ratio":
		d.proc.SetRatio(min(max(v, 1), 20))
	case "attack":
		d.proc.SetAttack(min(max(v, 0.1), 500))
	case "release":
		d.proc.SetRelease(min(max(v, 1), 2000))
	case "knee":
		d.proc.SetKnee(min(max(v, 0), 24))
	case "makeup":
		d.proc.SetMakeupGain(min(max(v, -12), 24))
	case "lookahead_ms":
		d.proc.SetLookaheadTime(min(max(v, 0), 20))
	default:
		return false
	}
	return true
}
