// Package paramqueue implements the lock-free single-producer,
// single-consumer bridge that carries control-domain parameter edits
// into the audio callback (SPEC_FULL.md §4.9, §5). The producer
// (any GUI/worker thread) never blocks; the consumer (the audio
// callback) never blocks or allocates.
package paramqueue

import (
	"sync/atomic"

	"github.com/atomozero/venicedaw-core/internal/spatial"
)

// Kind tags the ParameterUpdate's payload interpretation.
type Kind int

const (
	TrackPosition Kind = iota
	TrackVelocity
	TrackVolume
	TrackPan
	TrackMute
	TrackSolo
	ListenerPosition
	ListenerOrientation
	RoomSize
	EQBand
	DynamicsParam
	HRTFConfig
	MasterVolume
	TransportStart
	TransportStop
	TransportReset
	AddTrack
	RemoveTrack
)

// Update is a small POD tagged union. TrackID is -1 for global updates.
// Field/Band disambiguate EQBand/DynamicsParam updates. HRTF carries the
// pre-allocated HRTF payload whose ownership transfers to the audio side
// by pointer swap; it is nil for every other kind. Payload carries any
// other pre-allocated, control-side-built object the consumer only needs
// to splice into place without constructing anything itself — AddTrack
// uses it to hand over a fully built track/effects/spatial bundle so the
// audio thread never allocates one.
type Update struct {
	Kind       Kind
	TrackID    int
	Vec1, Vec2 spatial.Vec3
	Float      float32
	Bool       bool
	Band       int
	Field      string
	HRTF       *HRTFPayload
	Payload    any
}

// HRTFPayload is the pre-allocated, control-side-owned buffer handed to
// the audio side by pointer swap when a HRTFConfig update is enqueued.
type HRTFPayload struct {
	Left, Right        []float32
	Azimuth, Elevation float32
}

// capacity must be a power of two so the index mask avoids a modulo.
const capacity = 256
const mask = capacity - 1

// Queue is a fixed-capacity ring buffer of Update records shared between
// exactly one producer and one consumer goroutine.
type Queue struct {
	buf     [capacity]Update
	head    atomic.Uint64 // next slot the consumer will read
	tail    atomic.Uint64 // next slot the producer will write
	dropped atomic.Uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue is called from the control domain. It never blocks: if the
// queue is full the update is dropped and the dropped counter is
// incremented.
func (q *Queue) Enqueue(u Update) bool {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail-head >= capacity {
		q.dropped.Add(1)
		return false
	}
	q.buf[tail&mask] = u
	q.tail.Store(tail + 1)
	return true
}

// Dequeue is called from the audio callback. It never blocks or
// allocates. Returns false when the queue is empty.
func (q *Queue) Dequeue() (Update, bool) {
	head := q.head.Load()
	tail := q.tail.Load()
	if head == tail {
		return Update{}, false
	}
	u := q.buf[head&mask]
	q.head.Store(head + 1)
	return u, true
}

// DrainUpTo dequeues at most max updates, invoking apply for each, and
// returns the count actually drained. This is the bounded per-block work
// the audio callback performs (SPEC_FULL.md §4.7 step 1).
func (q *Queue) DrainUpTo(max int, apply func(Update)) int {
	n := 0
	for n < max {
		u, ok := q.Dequeue()
		if !ok {
			break
		}
		apply(u)
		n++
	}
	return n
}

// Dropped returns the count of updates dropped due to a full queue.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
