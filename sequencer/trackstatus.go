package sequencer

import "sync/atomic"

// noSchedule is the sentinel for TrackStatus.next/whenChange meaning "no
// transition pending". Spec §4.5 writes this as next=∅, when_change=0, but
// overloads tick 0 both as that sentinel and as a legitimate "change
// immediately" target; this reimplementation disambiguates with -1 so an
// explicit schedule at tick 0 is never mistaken for "nothing scheduled"
// (see DESIGN.md).
const noSchedule = -1

// stopRequested is the value TrackStatus.next holds when an edit-thread
// Stop() is pending: distinct from noSchedule (nothing pending) and from
// any real sequence index (>= 0).
const stopRequested = -2

// TrackStatus is the Sequencer's per-track playback state (spec §3). current
// and playingNotes are written only by the audio thread; next and
// whenChange are set by the edit thread via ScheduleSequence/Stop/StopAll
// and reset to noSchedule by the audio thread once the transition is
// applied. All four cross the thread boundary through atomics.
type TrackStatus struct {
	current     atomic.Int32
	next        atomic.Int32
	whenChange  atomic.Int64
	whenStarted atomic.Int64

	// playingNotes is touched only by the audio thread: no atomics needed.
	playingNotes [128]bool
}

func newTrackStatus() *TrackStatus {
	ts := &TrackStatus{}
	ts.current.Store(noSchedule)
	ts.next.Store(noSchedule)
	ts.whenChange.Store(noSchedule)
	return ts
}

// Current returns the index of the currently playing sequence, or -1.
func (ts *TrackStatus) Current() int {
	return int(ts.current.Load())
}

// Next returns the index of the sequence queued to play next, -1 if
// nothing is pending, or -2 (stopRequested) if a stop is pending.
func (ts *TrackStatus) Next() int {
	return int(ts.next.Load())
}
