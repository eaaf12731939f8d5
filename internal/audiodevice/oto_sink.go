package audiodevice

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoSink is a Sink backed by github.com/ebitengine/oto/v3, generalized
// from a single-chip ring-buffer reader to an arbitrary stereo Source:
// the device thread's Read callback loads the current Source via an
// atomic pointer (no lock on the hot path) and asks it to fill a
// pre-allocated float32 buffer, matching the ring-reader idiom this was
// adapted from but widened to two interleaved channels.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player

	source    atomic.Pointer[Source]
	sampleBuf []float32

	sampleRate int

	lastReadAt       atomic.Int64 // UnixNano of the previous Read call start
	underrunAfter    time.Duration
	underrunReporter UnderrunReporter

	mutex   sync.Mutex
	started bool
}

// NewOtoSink opens an oto context at sampleRate, stereo, float32LE.
func NewOtoSink(sampleRate int, source Source) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4096,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &OtoSink{
		ctx:           ctx,
		sampleRate:    sampleRate,
		sampleBuf:     make([]float32, 8192),
		underrunAfter: 50 * time.Millisecond,
	}
	s.source.Store(&source)
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// SetSource hot-swaps the audio source with no lock on the read path,
// matching the atomic.Pointer[SoundChip] technique this backend was
// generalized from.
func (s *OtoSink) SetSource(source Source) {
	s.source.Store(&source)
}

// SetUnderrunReporter wires a reporter the Read callback notifies when
// consecutive reads are spaced further apart than expected, the signal
// that the host had to wait on us for data.
func (s *OtoSink) SetUnderrunReporter(r UnderrunReporter) {
	s.underrunReporter = r
}

// isUnderrun reports whether the gap since the previous Read call
// exceeds the time the requested byte count should have taken to play
// at sampleRate, by more than the configured tolerance: a wide gap
// means the host went back to us for more data later than our own
// block cadence would predict, the signature of a stall somewhere
// upstream (SPEC_FULL.md §4.10).
func isUnderrun(gap, expected, tolerance time.Duration) bool {
	return gap > expected+tolerance
}

func expectedReadPeriod(byteLen, sampleRate int) time.Duration {
	const bytesPerStereoFrame = 8 // 2 channels * 4 bytes/float32
	return time.Duration(byteLen/bytesPerStereoFrame) * time.Second / time.Duration(sampleRate)
}

// Read implements io.Reader for oto.Player. numFrames = len(p) / (4 bytes
// per float32 * 2 channels).
func (s *OtoSink) Read(p []byte) (n int, err error) {
	now := time.Now()
	if last := s.lastReadAt.Load(); last != 0 {
		gap := now.Sub(time.Unix(0, last))
		if s.underrunReporter != nil && isUnderrun(gap, expectedReadPeriod(len(p), s.sampleRate), s.underrunAfter) {
			s.underrunReporter.ReportUnderrun()
		}
	}
	s.lastReadAt.Store(now.UnixNano())

	srcPtr := s.source.Load()
	if srcPtr == nil || *srcPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numFloats := len(p) / 4
	if len(s.sampleBuf) < numFloats {
		s.sampleBuf = make([]float32, numFloats)
	}
	samples := s.sampleBuf[:numFloats]
	frames := numFloats / 2

	(*srcPtr).ProcessBlock(samples, frames)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

// Start begins pulling Read callbacks.
func (s *OtoSink) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		s.player.Play()
		s.started = true
	}
	return nil
}

// Stop halts callbacks without releasing the underlying player.
func (s *OtoSink) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		s.player.Pause()
		s.started = false
	}
}

// Close releases the player and its device resources.
func (s *OtoSink) Close() {
	s.Stop()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
}
