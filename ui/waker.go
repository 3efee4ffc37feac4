// Package ui implements the pad-driven screen machine: TrackScreen,
// SongScreen, and SequenceScreen, each sharing the on_key/update protocol
// of spec §4.7 — on_key runs on the pad callback thread and only mutates
// an UpdateBlock; update runs on the edit thread once woken, and is the
// only place allowed to touch seqdata, Sequencer, or the pad driver's
// output methods.
package ui

import "sync"

// Waker is the edit thread's condition variable: on_key handlers call
// Wake after mutating an UpdateBlock, and the main loop blocks in Wait
// between updates (spec §5, "edit thread blocks on a condition
// variable... wakes on pad input or explicit wake-up").
type Waker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending bool // set by Wake, consumed by Wait
	exiting bool
}

// NewWaker returns a ready-to-use Waker.
func NewWaker() *Waker {
	w := &Waker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Wake signals the edit thread's loop to stop waiting.
func (w *Waker) Wake() {
	w.mu.Lock()
	w.pending = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Wait blocks until the next Wake or Exit. A Wake that arrived while no
// one was waiting is not lost: the following Wait returns at once.
func (w *Waker) Wait() {
	w.mu.Lock()
	for !w.pending && !w.exiting {
		w.cond.Wait()
	}
	w.pending = false
	w.mu.Unlock()
}

// Exit signals shutdown: do_exit (spec §5) plus a final wake so the main
// loop's Wait call returns and observes ShouldExit.
func (w *Waker) Exit() {
	w.mu.Lock()
	w.exiting = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// ShouldExit reports whether Exit has been called.
func (w *Waker) ShouldExit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exiting
}
