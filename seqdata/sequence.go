package seqdata

import (
	"sort"
	"sync"
)

// FlagRepeated marks a Sequence as auto-relaunching at its own end tick.
const FlagRepeated uint32 = 1 << 0

// Sequence is an ordered container of Events with a length in ticks, a
// user-settable flags bitmap, and an internal mutex. All public methods
// acquire the mutex; none allocate beyond what a single edit requires, and
// none are called from more than one goroutine at a time for a given
// Sequence under the intended usage (edit thread mutates, audio thread only
// reads through a Handle).
type Sequence struct {
	mu     sync.Mutex
	events []Event
	Length int64
	Flags  uint32
}

// NewSequence returns a Sequence of the given length, with Flags as given.
func NewSequence(length int64, flags uint32) *Sequence {
	return &Sequence{Length: length, Flags: flags}
}

// AddNote appends a linked note-on/note-off pair and re-tidies.
func (s *Sequence) AddNote(start, length int64, pitch, velocity byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, NewNoteOn(start, pitch, velocity), NewNoteOff(start+length, pitch, velocity))
	s.tidy()
}

// MarkRange marks note-ons (and their linked note-offs) whose tick and
// pitch fall in [start,end) x [noteLow,noteHigh). Does not clear any prior
// marks: accumulation across calls is intentional (spec §9 design note);
// callers that want a fresh query must Unmark first.
func (s *Sequence) MarkRange(start, end int64, noteLow, noteHigh byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) {
			continue
		}
		if e.Tick < start || e.Tick >= end {
			continue
		}
		if e.Data0 < noteLow || e.Data0 >= noteHigh {
			continue
		}
		e.Marked = true
		if e.Link >= 0 {
			s.events[e.Link].Marked = true
		}
	}
}

// Unmark clears every Marked flag, without touching the event list
// otherwise. Provided so callers can opt into the non-accumulating
// behavior MarkRange intentionally does not give them.
func (s *Sequence) Unmark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		s.events[i].Marked = false
	}
}

// SelectRange marks or toggles Selected on note-ons (and their linked
// note-offs) in the given range.
func (s *Sequence) SelectRange(start, end int64, noteLow, noteHigh byte, toggle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) {
			continue
		}
		if e.Tick < start || e.Tick >= end {
			continue
		}
		if e.Data0 < noteLow || e.Data0 >= noteHigh {
			continue
		}
		var sel bool
		if toggle {
			sel = !e.Selected
		} else {
			sel = true
		}
		e.Selected = sel
		if e.Link >= 0 {
			s.events[e.Link].Selected = sel
		}
	}
}

// Deselect clears Selected on every event.
func (s *Sequence) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		s.events[i].Selected = false
	}
}

// RemoveMarked deletes all marked events and re-tidies. Idempotent: a
// second call with nothing marked is a no-op.
func (s *Sequence) RemoveMarked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeMarkedLocked()
	s.tidy()
}

func (s *Sequence) removeMarkedLocked() {
	kept := s.events[:0]
	for _, e := range s.events {
		if !e.Marked {
			kept = append(kept, e)
		}
	}
	s.events = kept
}

// SetNoteLengths replaces the length of every marked note-on with length,
// preserving pitch and velocity.
func (s *Sequence) SetNoteLengths(length int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replacements []Event
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) || !e.Marked {
			continue
		}
		replacements = append(replacements, NewNoteOn(e.Tick, e.Data0, e.Data1), NewNoteOff(e.Tick+length, e.Data0, e.Data1))
	}
	s.events = append(s.events, replacements...)
	s.removeMarkedLocked()
	s.tidy()
}

// SetNoteVelocities sets Velocity on every marked note-on and clears its
// mark (and its linked note-off's mark).
func (s *Sequence) SetNoteVelocities(velocity byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) || !e.Marked {
			continue
		}
		e.Data1 = velocity
		e.Marked = false
		if e.Link >= 0 {
			s.events[e.Link].Marked = false
		}
	}
}

// SetLength shortens the sequence to l ticks: events at or past l are
// removed, note-offs crossing l are clipped to end exactly at l.
func (s *Sequence) SetLength(l int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		e := &s.events[i]
		if e.Tick >= l {
			e.Marked = true
		}
	}
	// Clip note-offs whose tick is past l but whose linked note-on is
	// still inside [0,l): keep the note-on, pull the note-off back to l.
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOff(*e) || !e.Marked {
			continue
		}
		if e.Link >= 0 && s.events[e.Link].Tick < l {
			e.Tick = l
			e.Marked = false
			s.events[e.Link].Marked = false
		}
	}
	s.Length = l
	s.removeMarkedLocked()
	s.tidy()
}

// NoteMover maps a selected note's (tick,pitch) to a new (tick,pitch).
type NoteMover func(tick int64, pitch byte) (int64, byte)

// MoveSelectedNotes applies mover to every selected note-on, preserving
// length and velocity.
func (s *Sequence) MoveSelectedNotes(mover NoteMover) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replacements []Event
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) || !e.Selected {
			continue
		}
		length := int64(0)
		if e.Link >= 0 {
			length = s.events[e.Link].Tick - e.Tick
		}
		newTick, newPitch := mover(e.Tick, e.Data0)
		on := NewNoteOn(newTick, newPitch, e.Data1)
		on.Selected = true
		off := NewNoteOff(newTick+length, newPitch, e.Data1)
		off.Selected = true
		replacements = append(replacements, on, off)

		e.Marked = true
		if e.Link >= 0 {
			s.events[e.Link].Marked = true
		}
	}
	s.events = append(s.events, replacements...)
	s.removeMarkedLocked()
	s.tidy()
}

// GetAverageVelocity returns the mean velocity of marked note-ons and
// unmarks them. Returns 0 if nothing is marked.
func (s *Sequence) GetAverageVelocity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum, count int
	for i := range s.events {
		e := &s.events[i]
		if !isNoteOn(*e) || !e.Marked {
			continue
		}
		sum += int(e.Data1)
		count++
		e.Marked = false
		if e.Link >= 0 {
			s.events[e.Link].Marked = false
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Handle is a scoped read handle: it holds the Sequence's mutex for as long
// as it is open, and exposes forward iteration over a snapshot of the event
// list. Callers (notably the audio thread's SequenceWalker) must Close it
// as soon as they are done; it must never be held across an audio-callback
// boundary.
type Handle struct {
	seq    *Sequence
	events []Event
}

// Open acquires the Sequence's mutex and returns a Handle over a snapshot
// of its current events.
func (s *Sequence) Open() *Handle {
	s.mu.Lock()
	snapshot := make([]Event, len(s.events))
	copy(snapshot, s.events)
	return &Handle{seq: s, events: snapshot}
}

// Events returns the snapshot taken at Open time.
func (h *Handle) Events() []Event {
	return h.events
}

// Length returns the sequence length in ticks, read while the handle holds
// the lock.
func (h *Handle) Length() int64 {
	return h.seq.Length
}

// Flags returns the sequence flags, read while the handle holds the lock.
func (h *Handle) Flags() uint32 {
	return h.seq.Flags
}

// Close releases the Sequence's mutex.
func (h *Handle) Close() {
	h.seq.mu.Unlock()
}

// tidy sorts by (tick,rank), clears all links and marks, then relinks every
// note-on to the first unlinked note-off of the same pitch that follows it
// in sorted order. A note-off at the same tick sorts before the note-on
// (lower rank) and so is not linked to it. Callers must hold s.mu.
func (s *Sequence) tidy() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return less(s.events[i], s.events[j])
	})
	for i := range s.events {
		s.events[i].Link = -1
		s.events[i].Marked = false
	}
	for i := range s.events {
		if !isNoteOn(s.events[i]) {
			continue
		}
		pitch := s.events[i].Data0
		for j := i + 1; j < len(s.events); j++ {
			if s.events[j].Link != -1 {
				continue
			}
			if isNoteOff(s.events[j]) && s.events[j].Data0 == pitch {
				s.events[i].Link = j
				s.events[j].Link = i
				break
			}
		}
	}
}
