package engine

// Status is a consolidated, control-domain-facing snapshot of engine
// health: everything a monitoring or UI layer would otherwise have to
// poll field-by-field. The shape is adapted from the teacher's
// runtimeStatusStore (runtime_status.go), which held an RWMutex-guarded
// struct of chip/player pointers for its own status queries; here every
// field is already backed by a lock-free atomic, so Status just collects
// them into one stable-enough point-in-time view without adding a lock
// of its own.
type Status struct {
	Running       bool
	TrackCount    int
	MasterPeak    float32
	MasterRMS     float32
	DroppedFrames uint64
}

// Status returns a point-in-time snapshot of engine health. Safe to call
// from any goroutine; never called from ProcessBlock itself.
func (e *Engine) Status() Status {
	return Status{
		Running:       e.Running(),
		TrackCount:    int(e.trackCount.Load()),
		MasterPeak:    e.MasterPeak(),
		MasterRMS:     e.MasterRMS(),
		DroppedFrames: e.DroppedFrames(),
	}
}
