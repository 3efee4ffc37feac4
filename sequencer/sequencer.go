// Package sequencer drives per-tick playback scheduling: one TrackStatus
// per Project track, a free-running tick clock advanced once per audio
// callback, and the merge of every active track's event stream into the
// Router's queued ring (spec §4.5, §4.6).
package sequencer

import (
	"math"
	"sync/atomic"

	"lseq/audio"
	"lseq/router"
	"lseq/seqdata"
	"lseq/tick"
)

// ticksPerBar is the bar length used to round an idle track's follow-up
// point up to the next bar boundary (spec §9: "get_follow_up_ticks for a
// stopped track = next bar boundary").
const ticksPerBar = 4 * tick.PPQN

// Sequencer owns the free-running tick clock, the per-track playback state,
// and the Router its schedule feeds. Process is called once per audio
// callback on the audio thread; ScheduleSequence/ScheduleSequenceAt/Stop
// are called from the edit thread.
type Sequencer struct {
	project *seqdata.Project
	router  *router.Router

	tracks [seqdata.TracksPerProject]*TrackStatus

	sampleRate int64
	activeBPM  float64 // applied only at a transition boundary, see SetBPM

	pendingBPM atomic.Uint64 // bits of a pending float64 BPM, 0 = none pending

	lastTicks  int64
	currentTick atomic.Int64
}

// New returns a Sequencer over project, emitting into rtr, converting
// ticks to frames at sampleRate using project's current BPM.
func New(project *seqdata.Project, rtr *router.Router, sampleRate int64) *Sequencer {
	s := &Sequencer{
		project:    project,
		router:     rtr,
		sampleRate: sampleRate,
		activeBPM:  project.BPM,
	}
	for i := range s.tracks {
		s.tracks[i] = newTrackStatus()
	}
	return s
}

// Track returns the playback status for the given track index, or nil if
// out of range.
func (s *Sequencer) Track(track int) *TrackStatus {
	if track < 0 || track >= len(s.tracks) {
		return nil
	}
	return s.tracks[track]
}

// SetBPM requests a tempo change. It is deferred to the next sequence
// transition on any track (spec §9: undefined upstream, so made
// deterministic here) rather than applied mid-window.
func (s *Sequencer) SetBPM(bpm float64) {
	s.pendingBPM.Store(math.Float64bits(bpm))
}

// ScheduleSequence queues seqIdx to start playing on track at the next
// natural follow-up point: immediately if the track is idle and aligned to
// a bar, the next bar boundary if idle mid-bar, or the end of the
// currently playing sequence if one is playing.
func (s *Sequencer) ScheduleSequence(track, seqIdx int) bool {
	return s.ScheduleSequenceAt(track, seqIdx, s.getFollowUpTicks(track))
}

// ScheduleSequenceAt queues seqIdx to start playing on track at the given
// absolute tick.
func (s *Sequencer) ScheduleSequenceAt(track, seqIdx int, when int64) bool {
	ts := s.Track(track)
	if ts == nil || seqIdx < 0 || seqIdx >= seqdata.SequencesPerTrack {
		return false
	}
	ts.next.Store(int32(seqIdx))
	ts.whenChange.Store(when)
	return true
}

// Stop queues track to go silent at its next natural follow-up point.
func (s *Sequencer) Stop(track int) bool {
	ts := s.Track(track)
	if ts == nil {
		return false
	}
	ts.next.Store(stopRequested)
	ts.whenChange.Store(s.getFollowUpTicks(track))
	return true
}

// StopAll silences every track on the very next Process call, per spec
// §4.5's stop(): next=∅, when_change=0 on all tracks. Unlike Stop, which
// defers to each track's own follow-up point so a held chord or running
// loop finishes its phrase, StopAll is the panic button: nothing is given
// a chance to resolve musically.
func (s *Sequencer) StopAll() {
	for _, ts := range s.tracks {
		ts.next.Store(stopRequested)
		ts.whenChange.Store(0)
	}
}

// getFollowUpTicks is the resolution of the spec's Open Question on what
// "follow-up" means: when_started+length while playing, the next bar
// boundary while idle.
func (s *Sequencer) getFollowUpTicks(track int) int64 {
	ts := s.tracks[track]
	now := s.currentTick.Load()
	cur := ts.Current()
	if cur < 0 {
		if now%ticksPerBar == 0 {
			return now
		}
		return (now/ticksPerBar + 1) * ticksPerBar
	}
	h := s.project.Tracks[track].Sequences[cur].Open()
	length := h.Length()
	h.Close()
	return ts.whenStarted.Load() + length
}

// framesToTicks converts a frame count to a tick count at the currently
// active BPM.
func (s *Sequencer) framesToTicks(nframes int64) int64 {
	ticksPerSecond := s.activeBPM / 60.0 * float64(tick.PPQN)
	return int64(float64(nframes) / float64(s.sampleRate) * ticksPerSecond)
}

// ticksToFrames converts a tick count to a frame count at the currently
// active BPM.
func (s *Sequencer) ticksToFrames(ticks int64) int64 {
	ticksPerSecond := s.activeBPM / 60.0 * float64(tick.PPQN)
	return int64(float64(ticks) / ticksPerSecond * float64(s.sampleRate))
}

// Process is the audio-thread entry point: it advances the tick clock by
// nframes worth of ticks, applies any due sequence transitions, schedules
// every note event due within the resulting window, and hands everything
// to the Router for this callback's Process pass.
func (s *Sequencer) Process(client audio.Client, nframes int) {
	last := client.LastFrameTime()
	wStart := s.lastTicks
	delta := s.framesToTicks(int64(nframes))
	if delta <= 0 {
		delta = 1
	}
	wStop := wStart + delta

	if s.swapSequences(wStart, last) {
		if bits := s.pendingBPM.Swap(0); bits != 0 {
			s.activeBPM = math.Float64frombits(bits)
		}
	}
	s.scheduleNotes(wStart, wStop, last)

	s.lastTicks = wStop
	s.currentTick.Store(wStop)
}

// swapSequences applies every track transition due at or before wStart,
// silencing whatever was sounding on that track first. It reports whether
// any transition happened, so Process knows whether this is a valid point
// to apply a pending BPM change.
func (s *Sequencer) swapSequences(wStart, lastFrame int64) bool {
	transitioned := false
	for i, ts := range s.tracks {
		whenChange := ts.whenChange.Load()
		if whenChange == noSchedule || whenChange > wStart {
			continue
		}
		next := ts.next.Load()
		s.allNotesOff(i, lastFrame)
		if next == stopRequested {
			ts.current.Store(noSchedule)
		} else {
			ts.current.Store(next)
			ts.whenStarted.Store(wStart)
		}
		ts.next.Store(noSchedule)
		ts.whenChange.Store(noSchedule)
		transitioned = true
	}
	return transitioned
}

// scheduleNotes merges the event streams of every currently-playing,
// unmuted track and emits every event due before wStop into the Router's
// queued ring, in the spec's tie-break order: smallest absolute tick,
// then rank (note-off before note-on), then ascending track index.
func (s *Sequencer) scheduleNotes(wStart, wStop, lastFrame int64) {
	walkers := make([]*walker, 0, seqdata.TracksPerProject)
	for i := 0; i < seqdata.TracksPerProject; i++ {
		ts := s.tracks[i]
		cur := ts.Current()
		if cur < 0 {
			continue
		}
		track := s.project.Tracks[i]
		if track.Muted {
			continue
		}
		h := track.Sequences[cur].Open()
		w := newWalker(i, int32(cur), h, ts.whenStarted.Load(), wStart)
		h.Close()
		walkers = append(walkers, w)
	}

	for {
		best := -1
		var bestAbs int64
		var bestEv seqdata.Event

		for i, w := range walkers {
			if w == nil {
				continue
			}
			abs, ev, ok := w.peek()
			for !ok && w.repeated {
				boundary := w.loopBoundary()
				if boundary >= wStop {
					break // loop point not due this pass; try again next Process call
				}
				s.allNotesOff(w.trackIdx, lastFrame+s.ticksToFrames(boundary-wStart))
				w.relaunch()
				abs, ev, ok = w.peek()
			}
			if !ok {
				// An empty (or fully-consumed) sequence never produces an
				// event to relaunch from before its loop point comes due.
				// A repeated track stays armed for a later Process call
				// instead of being marked finished; only a one-shot
				// track's exhaustion ends playback.
				if !w.repeated {
					s.trackFinished(w.trackIdx, lastFrame)
				}
				walkers[i] = nil
				continue
			}
			if abs >= wStop {
				continue
			}
			if best == -1 || isBetter(abs, ev, w.trackIdx, bestAbs, bestEv, walkers[best].trackIdx) {
				best = i
				bestAbs = abs
				bestEv = ev
			}
		}
		if best == -1 {
			break
		}
		w := walkers[best]
		s.emit(w.trackIdx, bestEv, bestAbs, wStart, lastFrame)
		w.advance()
		s.tracks[w.trackIdx].whenStarted.Store(w.whenStarted)
	}
}

func isBetter(abs int64, ev seqdata.Event, trackIdx int, bestAbs int64, bestEv seqdata.Event, bestTrack int) bool {
	if abs != bestAbs {
		return abs < bestAbs
	}
	if ra, rb := seqdata.Rank(ev), seqdata.Rank(bestEv); ra != rb {
		return ra < rb
	}
	return trackIdx < bestTrack
}

// emit stamps ev's absolute tick into a frame-relative-to-lastFrame
// timestamp, ORs the track's channel into the status byte, pushes it onto
// the Router's queued ring, and keeps playingNotes in sync for the
// all-notes-off path.
func (s *Sequencer) emit(trackIdx int, ev seqdata.Event, abs, wStart, lastFrame int64) {
	ts := s.tracks[trackIdx]
	track := s.project.Tracks[trackIdx]
	frameStamp := lastFrame + s.ticksToFrames(abs-wStart)

	bytes := [3]byte{ev.Status | track.Channel, ev.Data0, ev.Data1}
	s.router.EnqueueQueued(frameStamp, bytes)

	switch ev.Status {
	case seqdata.StatusNoteOn:
		ts.playingNotes[ev.Data0] = true
	case seqdata.StatusNoteOff:
		ts.playingNotes[ev.Data0] = false
	}
}

// trackFinished marks a one-shot (non-REPEATED) track idle once its
// sequence runs out of events, silencing any note it left sounding.
func (s *Sequencer) trackFinished(trackIdx int, lastFrame int64) {
	s.allNotesOff(trackIdx, lastFrame)
	s.tracks[trackIdx].current.Store(noSchedule)
}

// allNotesOff immediately silences every pitch marked as sounding on
// track, stamped at lastFrame so it reaches the output on the very next
// Router.Process pass.
func (s *Sequencer) allNotesOff(trackIdx int, lastFrame int64) {
	ts := s.tracks[trackIdx]
	channel := s.project.Tracks[trackIdx].Channel
	for pitch := 0; pitch < 128; pitch++ {
		if !ts.playingNotes[pitch] {
			continue
		}
		s.router.EnqueueImmediate(lastFrame, [3]byte{seqdata.StatusNoteOff | channel, byte(pitch), 0})
		ts.playingNotes[pitch] = false
	}
}
