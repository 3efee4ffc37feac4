package ui

import (
	"sync"
	"sync/atomic"

	"lseq/launchpad"
)

// Event augments a raw KeyEvent with the screen machine's MIXER-held
// shift state, computed once at dispatch time so screens don't each have
// to track it themselves.
type Event struct {
	launchpad.KeyEvent
	Shift bool
}

// UpdateBlock is the mutex-guarded mailbox between the pad callback
// thread (Push, from on_key) and the edit thread (Drain, from update).
// Dirty is atomic so the edit thread can poll it cheaply without taking
// the mutex.
type UpdateBlock struct {
	mu     sync.Mutex
	events []Event
	dirty  atomic.Bool
}

// Push appends ev and marks the block dirty. Safe to call from the pad
// callback thread.
func (b *UpdateBlock) Push(ev Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	b.dirty.Store(true)
}

// Dirty reports whether any event is pending.
func (b *UpdateBlock) Dirty() bool {
	return b.dirty.Load()
}

// Drain snapshots and clears the pending events. Called from the edit
// thread inside Screen.Update.
func (b *UpdateBlock) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	b.dirty.Store(false)
	return events
}
