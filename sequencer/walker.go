package sequencer

import "lseq/seqdata"

// walker walks one track's currently-playing sequence during a single
// schedule_notes pass. It holds a snapshot taken through a Handle (the
// Sequence's mutex is released as soon as the snapshot is copied, per
// spec §4.5: "scoped read-handle... advanced to the first event with
// absolute tick >= w_start").
type walker struct {
	trackIdx    int
	seqIdx      int32
	events      []seqdata.Event
	length      int64
	idx         int
	repeated    bool
	whenStarted int64
}

func newWalker(trackIdx int, seqIdx int32, h *seqdata.Handle, whenStarted, wStart int64) *walker {
	events := h.Events()
	repeated := h.Flags()&seqdata.FlagRepeated != 0
	idx := 0
	for idx < len(events) && events[idx].Tick+whenStarted < wStart {
		idx++
	}
	return &walker{
		trackIdx:    trackIdx,
		seqIdx:      seqIdx,
		events:      events,
		length:      h.Length(),
		idx:         idx,
		repeated:    repeated,
		whenStarted: whenStarted,
	}
}

// relaunch restarts the walk for a REPEATED sequence's next loop: the
// events slice is the same, only the absolute time origin advances by one
// sequence length.
func (w *walker) relaunch() {
	w.whenStarted += w.length
	w.idx = 0
}

// exhausted reports whether the walker has no more events this pass.
func (w *walker) exhausted() bool {
	return w.idx >= len(w.events)
}

// peek returns the absolute tick of the next due event and the event itself. An event
// whose Tick falls at or beyond the sequence's own length belongs to a lap
// this walker has already looped past (seqdata.Sequence.AddNote never
// clamps a note's length to Length, so such events can exist); peek treats
// it the same as running off the end of events, since the events slice is
// sorted by Tick and everything after it is equally out of range.
func (w *walker) peek() (abs int64, ev seqdata.Event, ok bool) {
	if w.exhausted() || w.events[w.idx].Tick >= w.length {
		return 0, seqdata.Event{}, false
	}
	ev = w.events[w.idx]
	return ev.Tick + w.whenStarted, ev, true
}

// loopBoundary returns the absolute tick at which the current lap ends.
func (w *walker) loopBoundary() int64 {
	return w.whenStarted + w.length
}

func (w *walker) advance() {
	w.idx++
}
