package ui

import (
	"testing"

	"lseq/audio"
	"lseq/launchpad"
	"lseq/router"
	"lseq/seqdata"
	"lseq/sequencer"
)

func newTrackScreenHarness() (*seqdata.Project, *sequencer.Sequencer, *TrackScreen, *[][2]int) {
	project := seqdata.NewProject()
	out := audio.NewBufferPort(32)
	rtr := router.New(out, nil)
	seqr := sequencer.New(project, rtr, 48000)

	var opened [][2]int
	driver := launchpad.New(nil)
	screen := NewTrackScreen(project, seqr, driver, func(track, seqIdx int) {
		opened = append(opened, [2]int{track, seqIdx})
	})
	return project, seqr, screen, &opened
}

func TestTrackScreenGridPressSchedulesASequence(t *testing.T) {
	_, seqr, screen, _ := newTrackScreenHarness()

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyGrid, X: 3, Y: 2, Press: true}})
	screen.Update()

	ts := seqr.Track(2)
	if ts == nil || ts.Next() != 3 {
		t.Fatalf("track 2's queued sequence = %v, want 3", ts)
	}
}

func TestTrackScreenShiftGridOpensSequenceInstead(t *testing.T) {
	_, seqr, screen, opened := newTrackScreenHarness()

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyGrid, X: 5, Y: 1, Press: true}, Shift: true})
	screen.Update()

	if len(*opened) != 1 || (*opened)[0] != [2]int{1, 5} {
		t.Fatalf("opened = %v, want [[1 5]]", *opened)
	}
	if ts := seqr.Track(1); ts.Next() != -1 {
		t.Fatalf("shift+grid should not schedule, but Next() = %d", ts.Next())
	}
}

func TestTrackScreenSidePressTogglesMute(t *testing.T) {
	project, _, screen, _ := newTrackScreenHarness()

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeySide, Y: 4, Press: true}})
	screen.Update()
	if !project.Tracks[4].Muted {
		t.Fatal("track 4 should be muted after one side press")
	}

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeySide, Y: 4, Press: true}})
	screen.Update()
	if project.Tracks[4].Muted {
		t.Fatal("track 4 should be unmuted after a second side press")
	}
}

func TestTrackScreenIgnoresOutOfRangeCoordinates(t *testing.T) {
	project, seqr, screen, _ := newTrackScreenHarness()
	screen.trackOffset = seqdata.TracksPerProject - 2
	screen.seqOffset = 0

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyGrid, X: 0, Y: 7, Press: true}})
	screen.Update()

	for i := range project.Tracks {
		if ts := seqr.Track(i); ts.Next() != -1 {
			t.Fatalf("track %d got a schedule from an out-of-range press", i)
		}
	}
}
