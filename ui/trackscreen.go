package ui

import (
	"sync/atomic"

	"lseq/launchpad"
	"lseq/sequencer"
	"lseq/seqdata"
)

// TrackScreen shows an 8x8 window of the (track x sequence) grid: grid
// press launches a sequence, shift+grid hands it to the openSequence hook
// instead (the active screen does not change; the machine switches to
// SequenceScreen only on the top-row USER2 button), and the right-column
// side buttons toggle per-row track mute (spec §4.7).
type TrackScreen struct {
	project *seqdata.Project
	seqr    *sequencer.Sequencer
	driver  *launchpad.Driver

	block  UpdateBlock
	forced atomic.Bool

	trackOffset, seqOffset int

	// openSequence is called (on the edit thread) when shift+grid opens
	// a sequence for editing; nil disables the shortcut.
	openSequence func(track, seqIdx int)
}

// NewTrackScreen returns a TrackScreen over project/seqr, drawing through
// driver. openSequence may be nil.
func NewTrackScreen(project *seqdata.Project, seqr *sequencer.Sequencer, driver *launchpad.Driver, openSequence func(track, seqIdx int)) *TrackScreen {
	return &TrackScreen{project: project, seqr: seqr, driver: driver, openSequence: openSequence}
}

func (s *TrackScreen) OnKey(ev Event) {
	s.block.Push(ev)
}

func (s *TrackScreen) OnEnter() {
	s.forced.Store(true)
}

func (s *TrackScreen) Update() {
	events := s.block.Drain()
	changed := false
	for _, ev := range events {
		switch ev.Type {
		case launchpad.KeyGrid:
			if !ev.Press {
				continue
			}
			track := s.trackOffset + ev.Y
			seqIdx := s.seqOffset + ev.X
			if !validTrack(track) || !validSequence(seqIdx) {
				continue
			}
			if ev.Shift {
				if s.openSequence != nil {
					s.openSequence(track, seqIdx)
				}
			} else {
				s.seqr.ScheduleSequence(track, seqIdx)
			}
			changed = true
		case launchpad.KeySide:
			if !ev.Press {
				continue
			}
			track := s.trackOffset + ev.Y
			if !validTrack(track) {
				continue
			}
			s.project.Tracks[track].Muted = !s.project.Tracks[track].Muted
			changed = true
		}
	}
	if !changed && !s.forced.Swap(false) {
		return
	}
	s.repaint()
}

func validTrack(track int) bool {
	return track >= 0 && track < seqdata.TracksPerProject
}

func validSequence(seqIdx int) bool {
	return seqIdx >= 0 && seqIdx < seqdata.SequencesPerTrack
}

func (s *TrackScreen) repaint() {
	s.driver.FillMatrix(func(x, y int) byte {
		track := s.trackOffset + y
		seqIdx := s.seqOffset + x
		if !validTrack(track) || !validSequence(seqIdx) {
			return launchpad.ClBlack
		}
		t := s.project.Tracks[track]
		ts := s.seqr.Track(track)
		switch {
		case ts != nil && ts.Current() == seqIdx:
			return launchpad.ClGreen
		case t.Muted:
			return launchpad.ClRedL
		case !sequenceEmpty(t.Sequences[seqIdx]):
			return launchpad.ClAmberM
		default:
			return launchpad.ClBlack
		}
	})
	s.driver.Flip(true)
}

func sequenceEmpty(seq *seqdata.Sequence) bool {
	h := seq.Open()
	n := len(h.Events())
	h.Close()
	return n == 0
}
