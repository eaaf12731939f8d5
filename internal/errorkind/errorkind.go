// Package errorkind names the five error kinds SPEC_FULL.md §7 defines
// for the control boundary, as sentinel errors usable with errors.Is and
// errors.As via fmt.Errorf("...: %w", ...) wrapping.
package errorkind

import "errors"

var (
	// ErrDeviceUnavailable: the sound device could not be opened or was
	// lost mid-stream. Control-side only.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrConfigurationInvalid: block size not a power of two, sample
	// rate outside the supported set, or an effect added with mismatched
	// sample rate. Rejected at the control boundary before enqueue.
	ErrConfigurationInvalid = errors.New("configuration invalid")

	// ErrResourceExhausted: parameter queue full, or track count at its
	// configured maximum. Counted; the update is dropped, not an error
	// the caller sees beyond the counter.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrDecodeEnded: the file decoder signaled end of stream. Not a
	// failure; the track transitions to idle.
	ErrDecodeEnded = errors.New("decode ended")

	// ErrHRTFInvalid: HRTF left/right vectors of mismatched or zero
	// length. Rejected at load time; the previous HRTF is retained.
	ErrHRTFInvalid = errors.New("hrtf invalid")
)
