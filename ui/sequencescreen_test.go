package ui

import (
	"testing"
	"time"

	"lseq/audio"
	"lseq/launchpad"
	"lseq/router"
	"lseq/seqdata"
)

func newSequenceScreenHarness() (*seqdata.Sequence, *router.Router, *audio.BufferPort, *audio.SoftClient, *SequenceScreen) {
	seq := seqdata.NewSequence(seqdata.DefaultSequenceLength, 0)
	out := audio.NewBufferPort(32)
	rtr := router.New(out, nil)
	driver := launchpad.New(nil)
	screen := NewSequenceScreen(rtr, driver, 0)
	screen.SetSequence(seq)

	client := audio.NewSoftClient(48000, time.Millisecond)
	client.SetProcessCallback(func(nframes int) {
		rtr.Process(client, nframes)
	})
	return seq, rtr, out, client, screen
}

func grid(x, y int, press bool) Event {
	return Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyGrid, X: x, Y: y, Press: press}}
}

func TestSequenceScreenPlainPressAddsANoteThatSurvivesRelease(t *testing.T) {
	seq, _, out, client, screen := newSequenceScreenHarness()

	screen.OnKey(grid(2, 3, true))
	screen.Update()
	client.Advance(1000)
	if n := out.GetEventCount(); n != 1 {
		t.Fatalf("after press: %d events emitted, want 1 (audition note-on)", n)
	}

	screen.OnKey(grid(2, 3, false))
	screen.Update()
	client.Advance(1000)
	if n := out.GetEventCount(); n != 1 {
		t.Fatalf("after release: %d events emitted, want 1 (audition note-off)", n)
	}

	h := seq.Open()
	events := h.Events()
	h.Close()
	noteOns := 0
	for _, e := range events {
		if e.Status == seqdata.StatusNoteOn {
			noteOns++
		}
	}
	if noteOns != 1 {
		t.Fatalf("sequence has %d note-ons after a plain tap, want 1 (should persist)", noteOns)
	}
}

func TestSequenceScreenSecondGridInRowExtendsLength(t *testing.T) {
	seq, _, _, _, screen := newSequenceScreenHarness()

	screen.OnKey(grid(1, 4, true))
	screen.Update()
	screen.OnKey(grid(3, 4, true)) // extend length while (1,4) still held
	screen.Update()

	h := seq.Open()
	events := h.Events()
	h.Close()

	var on *seqdata.Event
	for i := range events {
		if events[i].Status == seqdata.StatusNoteOn {
			on = &events[i]
		}
	}
	if on == nil {
		t.Fatal("no note-on found after length extension")
	}
	off := events[on.Link]
	if got := off.Tick - on.Tick; got <= 192 {
		t.Fatalf("note length = %d ticks, want > 192 (one quarter note) after extension", got)
	}
}

func TestSequenceScreenShiftGridSelectsWithoutCreating(t *testing.T) {
	seq, _, _, _, screen := newSequenceScreenHarness()

	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyGrid, X: 4, Y: 2, Press: true}, Shift: true})
	screen.Update()

	h := seq.Open()
	n := len(h.Events())
	h.Close()
	if n != 0 {
		t.Fatalf("shift+grid on an empty cell created %d events, want 0", n)
	}
}

func TestSequenceScreenSideButtonSetsVelocityOnHeldNote(t *testing.T) {
	seq, _, _, _, screen := newSequenceScreenHarness()

	screen.OnKey(grid(0, 5, true))
	screen.Update()
	screen.OnKey(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeySide, Y: 1, Press: true}})
	screen.Update()

	h := seq.Open()
	events := h.Events()
	h.Close()
	var found bool
	for _, e := range events {
		if e.Status == seqdata.StatusNoteOn {
			found = true
			if e.Data1 != 112 {
				t.Fatalf("velocity = %d, want 112 (side row 1)", e.Data1)
			}
		}
	}
	if !found {
		t.Fatal("no note-on found")
	}
}

func TestSequenceScreenMoveSelectedRequiresASelection(t *testing.T) {
	_, _, _, _, screen := newSequenceScreenHarness()
	changed := screen.handleTop(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyTop, Code: launchpad.TopRight, Press: true}})
	if changed {
		t.Fatal("arrow key with no selection should be a no-op")
	}
}

func TestSequenceScreenShiftArrowZoomsIn(t *testing.T) {
	_, _, _, _, screen := newSequenceScreenHarness()
	before := screen.timeScaler.Step()
	screen.handleTop(Event{KeyEvent: launchpad.KeyEvent{Type: launchpad.KeyTop, Code: launchpad.TopUp, Press: true}, Shift: true})
	if screen.timeScaler.Step() >= before {
		t.Fatalf("ScaleIn via shift+up did not reduce step: before=%d after=%d", before, screen.timeScaler.Step())
	}
}
