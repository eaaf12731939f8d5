package buffer

import "testing"

func TestNewMatchesLayoutChannelCount(t *testing.T) {
	for _, layout := range []ChannelLayout{Mono, Stereo, Surround51, Surround71, Atmos} {
		b := New(layout, 128, 44100)
		if b.ChannelCount() != layout.ChannelCount() {
			t.Fatalf("layout %v: channel count %d != %d", layout, b.ChannelCount(), layout.ChannelCount())
		}
		for i := 0; i < b.ChannelCount(); i++ {
			if len(b.Channel(i)) != 128 {
				t.Fatalf("layout %v channel %d: wrong length %d", layout, i, len(b.Channel(i)))
			}
		}
	}
}

func TestClearZeroesAllPlanes(t *testing.T) {
	b := New(Stereo, 4, 44100)
	for ch := 0; ch < 2; ch++ {
		for i := range b.Channel(ch) {
			b.Channel(ch)[i] = 1
		}
	}
	b.Clear()
	for ch := 0; ch < 2; ch++ {
		for _, v := range b.Channel(ch) {
			if v != 0 {
				t.Fatalf("expected zero after Clear, got %v", v)
			}
		}
	}
}

func TestResizeChangesFrameCount(t *testing.T) {
	b := New(Stereo, 4, 44100)
	b.Resize(8)
	if b.Frames != 8 || len(b.Channel(0)) != 8 {
		t.Fatalf("resize did not grow planes")
	}
	b.Resize(2)
	if b.Frames != 2 || len(b.Channel(0)) != 2 {
		t.Fatalf("resize did not shrink planes")
	}
}
