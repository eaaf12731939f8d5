package audiodevice

import (
	"sync"
	"time"
)

// NullSink pulls blocks from a Source on a wall-clock ticker and discards
// them. It is the audiodevice.Sink used in headless environments (CI,
// batch rendering, integration tests) where no sound hardware is present,
// generalized from the teacher's headless GUI build's no-op device stub.
// It still calls ProcessBlock at the configured rate so a Source's meters
// and parameter-queue draining behave exactly as they would against a
// real device.
type NullSink struct {
	sampleRate int
	blockSize  int
	source     Source

	mutex   sync.Mutex
	ticker  *time.Ticker
	stopCh  chan struct{}
	started bool
}

// NewNullSink returns a Sink that paces ProcessBlock calls to sampleRate
// without producing any audible output.
func NewNullSink(sampleRate, blockSize int, source Source) *NullSink {
	return &NullSink{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		source:     source,
	}
}

func (s *NullSink) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return nil
	}
	period := time.Duration(float64(s.blockSize) / float64(s.sampleRate) * float64(time.Second))
	s.ticker = time.NewTicker(period)
	s.stopCh = make(chan struct{})
	s.started = true

	buf := make([]float32, s.blockSize*2)
	ticker := s.ticker
	stopCh := s.stopCh
	go func() {
		for {
			select {
			case <-ticker.C:
				s.source.ProcessBlock(buf, s.blockSize)
			case <-stopCh:
				return
			}
		}
	}()
	return nil
}

func (s *NullSink) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return
	}
	s.ticker.Stop()
	close(s.stopCh)
	s.started = false
}

func (s *NullSink) Close() {
	s.Stop()
}
