// Package midiring implements the single-producer/single-consumer queue of
// MidiMessages that the Router drains into the audio output port. The
// original design calls for a hand-rolled lock-free ring over a byte array;
// a buffered channel with a non-blocking send gives the same guarantees in
// Go (bounded capacity, producer never blocks, full queue drops and counts
// an overrun) without hand-written atomics, matching the pattern the
// teacher already uses for its pad-event channels (see midi/manager.go's
// padChan, written with select/default).
package midiring

import "sync/atomic"

// MidiMessage is one queued MIDI event: a frame stamp and up to 3 payload
// bytes (status, data0, data1).
type MidiMessage struct {
	FrameStamp int64
	Length     uint8
	Bytes      [3]byte
}

// Ring is a fixed-capacity SPSC queue of T. Write never blocks: on a full
// queue it drops the value and increments Overruns. Peek/Advance let the
// single consumer look at the head without removing it, which Router needs
// to decide whether an event belongs to the current process window.
type Ring[T any] struct {
	ch       chan T
	pending  *T
	overruns atomic.Uint64
}

// New creates a Ring with room for capacity elements.
func New[T any](capacity int) *Ring[T] {
	return &Ring[T]{ch: make(chan T, capacity)}
}

// Write enqueues v, dropping it and counting an overrun if the ring is full.
// Safe to call concurrently with Peek/Advance/Read from the single consumer,
// and safe for concurrent callers on the producer side since the drop
// decision is made by the channel itself.
func (r *Ring[T]) Write(v T) bool {
	select {
	case r.ch <- v:
		return true
	default:
		r.overruns.Add(1)
		return false
	}
}

// Peek returns the head element without removing it. The second return
// value is false if the ring is empty.
func (r *Ring[T]) Peek() (T, bool) {
	if r.pending != nil {
		return *r.pending, true
	}
	select {
	case v := <-r.ch:
		r.pending = &v
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Advance removes the previously peeked head. It is a no-op if nothing was
// peeked.
func (r *Ring[T]) Advance() {
	r.pending = nil
}

// Read removes and returns the head element, peeking first if necessary.
func (r *Ring[T]) Read() (T, bool) {
	v, ok := r.Peek()
	if ok {
		r.Advance()
	}
	return v, ok
}

// Overruns returns the number of values dropped because the ring was full.
func (r *Ring[T]) Overruns() uint64 {
	return r.overruns.Load()
}

// Len reports the number of elements currently queued, including a pending
// peek.
func (r *Ring[T]) Len() int {
	n := len(r.ch)
	if r.pending != nil {
		n++
	}
	return n
}
