package surround

// DefaultHRTF returns the built-in generic head-related impulse response
// pair used when no external HRTF has been loaded (SPEC_FULL.md §4.5,
// §9 Open Question 2): a single-tap left response and a one-sample-delayed,
// slightly attenuated right response, giving a small fixed ITD/ILD bias
// baked into the default content itself. Angle-dependent ITD/ILD is then
// layered on top by the renderer from the source's actual position.
func DefaultHRTF() (left, right []float32) {
	return []float32{1.0}, []float32{0, 0.97}
}
