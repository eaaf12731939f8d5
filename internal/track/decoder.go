package track

// FrameDecoder is the opaque interface a file-backed track source
// decodes through, adapted from the teacher's MusicPlayer surface
// (music_interfaces.go) down to the one operation the engine's
// real-time path actually needs: pull the next decoded frame.
//
// Decode never blocks on I/O from the audio thread's perspective: a
// real decoder implementation is expected to do its file/codec work
// ahead of time (e.g. in a background goroutine feeding a ring buffer)
// and have Decode merely drain that buffer.
type FrameDecoder interface {
	// Decode fills buf with up to len(buf) decoded mono samples, returning
	// the count actually written. When the stream has ended it returns
	// (n, ErrEndOfStream) for whatever partial frame remains, then
	// (0, ErrEndOfStream) thereafter until Rearm is called.
	Decode(buf []float32) (n int, err error)

	// Rearm restarts decoding from the beginning of the source.
	Rearm() error
}

// ErrEndOfStream is returned by FrameDecoder.Decode once no more frames
// remain. It is distinct from (and wrapped into) errorkind.ErrDecodeEnded
// at the track level so FrameDecoder implementations stay decoupled from
// the engine's error taxonomy.
var ErrEndOfStream = decodeEndedError{}

type decodeEndedError struct{}

func (decodeEndedError) Error() string { return "decoder: end of stream" }
