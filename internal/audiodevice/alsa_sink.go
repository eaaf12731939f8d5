//go:build linux && cgo && alsa

package audiodevice

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* venice_alsa_open(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int venice_alsa_setup(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static snd_pcm_sframes_t venice_alsa_write(snd_pcm_t* handle, float* buffer, snd_pcm_uframes_t frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void venice_alsa_close(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// channelsStereo is the fixed ALSA hw_params channel count: the engine's
// Source contract always produces interleaved stereo frames.
const channelsStereo = 2

// AlsaSink is a real Linux ALSA playback backend, generalized from the
// teacher's single-channel AlsaPlayer to the engine's interleaved stereo
// Source contract. Unlike OtoSink's pull-via-callback model, ALSA's
// snd_pcm_writei blocks until the device consumes a period, so the pull
// loop here is a plain goroutine rather than an io.Reader handed to a
// player: the blocking write call itself paces the loop to the hardware
// clock.
type AlsaSink struct {
	handle *C.snd_pcm_t
	source Source

	frames  int
	scratch []float32

	mutex   sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewAlsaSink opens the default ALSA playback device at sampleRate and
// prepares it for interleaved float32 stereo frames of frames length per
// period.
func NewAlsaSink(sampleRate, frames int, source Source) (*AlsaSink, error) {
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))

	var cerr C.int
	handle := C.venice_alsa_open(device, &cerr)
	if cerr < 0 {
		return nil, fmt.Errorf("%s: open PCM device: %s", errPrefix, C.GoString(C.snd_strerror(cerr)))
	}
	if cerr = C.venice_alsa_setup(handle, C.uint(sampleRate), C.uint(channelsStereo)); cerr < 0 {
		C.venice_alsa_close(handle)
		return nil, fmt.Errorf("%s: configure PCM device: %s", errPrefix, C.GoString(C.snd_strerror(cerr)))
	}

	return &AlsaSink{
		handle:  handle,
		source:  source,
		frames:  frames,
		scratch: make([]float32, frames*channelsStereo),
	}, nil
}

const errPrefix = "audiodevice: alsa"

func init() {
	optionalBackends = append(optionalBackends, "alsa")
}

func (s *AlsaSink) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true
	go s.run(s.stopCh, s.doneCh)
	return nil
}

func (s *AlsaSink) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		s.source.ProcessBlock(s.scratch, s.frames)

		written := C.venice_alsa_write(s.handle, (*C.float)(unsafe.Pointer(&s.scratch[0])), C.snd_pcm_uframes_t(s.frames))
		if written < 0 {
			if written == -C.EPIPE {
				C.snd_pcm_prepare(s.handle)
			}
		}
	}
}

func (s *AlsaSink) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	close(s.stopCh)
	doneCh := s.doneCh
	s.running = false
	s.mutex.Unlock()
	<-doneCh
}

func (s *AlsaSink) Close() {
	s.Stop()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.handle != nil {
		C.venice_alsa_close(s.handle)
		s.handle = nil
	}
}
