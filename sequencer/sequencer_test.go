package sequencer

import (
	"testing"
	"time"

	"lseq/audio"
	"lseq/router"
	"lseq/seqdata"
	"lseq/tick"
)

const testSampleRate = 48000

func newHarness(t *testing.T) (*seqdata.Project, *Sequencer, *audio.SoftClient, *audio.BufferPort) {
	t.Helper()
	project := seqdata.NewProject()
	project.BPM = 120
	out := audio.NewBufferPort(32)
	rtr := router.New(out, nil)
	seq := New(project, rtr, testSampleRate)
	client := audio.NewSoftClient(testSampleRate, time.Millisecond)
	client.SetProcessCallback(func(nframes int) {
		seq.Process(client, nframes)
		rtr.Process(client, nframes)
	})
	return project, seq, client, out
}

func TestScheduleSequenceEmitsNoteOnAndOffAtFrameAccurateOffsets(t *testing.T) {
	project, seq, client, out := newHarness(t)
	project.Tracks[0].Sequences[0].AddNote(0, tick.PPQN, 60, 100)

	if !seq.ScheduleSequence(0, 0) {
		t.Fatal("ScheduleSequence rejected")
	}

	client.Advance(25000)

	if n := out.GetEventCount(); n != 2 {
		t.Fatalf("got %d events, want 2", n)
	}
	t0, d0, _ := out.GetEvent(0)
	if t0 != 0 || d0[0] != 0x90 || d0[1] != 60 || d0[2] != 100 {
		t.Errorf("note-on = t=%d data=%v", t0, d0)
	}
	t1, d1, _ := out.GetEvent(1)
	if t1 != 24000 || d1[0] != 0x80 || d1[1] != 60 {
		t.Errorf("note-off = t=%d data=%v", t1, d1)
	}
}

func TestScheduleSequenceAtIdleTrackDefersUntilWhenChange(t *testing.T) {
	_, seq, client, out := newHarness(t)
	// Nothing ever added to the sequence; schedule far in the future so
	// the first window sees no transition and emits nothing.
	seq.ScheduleSequenceAt(0, 0, 1_000_000)
	client.Advance(1000)
	if n := out.GetEventCount(); n != 0 {
		t.Fatalf("got %d events before the scheduled window, want 0", n)
	}
}

func TestLaunchTransitionSilencesPreviousNotes(t *testing.T) {
	project, seq, client, out := newHarness(t)
	// A long note that is still sounding when track 0 switches sequences.
	project.Tracks[0].Sequences[0].AddNote(0, 100*tick.PPQN, 60, 100)
	project.Tracks[0].Sequences[1].Flags = 0 // one-shot, empty

	seq.ScheduleSequence(0, 0)
	client.Advance(5000) // sounds the note-on, well short of its note-off

	onCount := 0
	for i := 0; i < out.GetEventCount(); i++ {
		_, d, _ := out.GetEvent(i)
		if d[0] == 0x90 {
			onCount++
		}
	}
	if onCount != 1 {
		t.Fatalf("expected the note to have sounded, got %d note-ons", onCount)
	}

	// Switch tracks mid-note: the in-flight note must be force-released.
	seq.ScheduleSequenceAt(0, 1, seq.currentTick.Load())
	client.Advance(5000)

	sawForcedOff := false
	for i := 0; i < out.GetEventCount(); i++ {
		_, d, _ := out.GetEvent(i)
		if d[0] == 0x80 && d[1] == 60 {
			sawForcedOff = true
		}
	}
	if !sawForcedOff {
		t.Fatal("expected a forced note-off on the sequence transition")
	}
}

func TestRepeatedSequenceRelaunchesAtItsOwnLength(t *testing.T) {
	project, seq, client, out := newHarness(t)
	sequence := project.Tracks[0].Sequences[0]
	sequence.SetLength(tick.PPQN) // FlagRepeated already set by NewTrack
	sequence.AddNote(0, tick.PPQN/2, 60, 100)

	seq.ScheduleSequence(0, 0)
	// Two sequence lengths plus slack, in frames: 2*PPQN ticks -> frames.
	client.Advance(50000)

	onCount := 0
	for i := 0; i < out.GetEventCount(); i++ {
		_, d, _ := out.GetEvent(i)
		if d[0] == 0x90 {
			onCount++
		}
	}
	if onCount < 2 {
		t.Fatalf("expected the loop to relaunch at least once, got %d note-ons", onCount)
	}
}

func TestStopSilencesASoundingTrack(t *testing.T) {
	project, seq, client, out := newHarness(t)
	// A note longer than the sequence's own default length (1536 ticks),
	// so it is still sounding (and outlives the sequence's loop point)
	// when Stop is requested.
	project.Tracks[0].Sequences[0].AddNote(0, 2000, 60, 100)
	seq.ScheduleSequence(0, 0)
	client.Advance(5000) // sounds the note-on, well short of its note-off

	seq.Stop(0)
	// Stop defers to this track's follow-up point: when_started+length =
	// 1536 ticks. At 120 BPM/48kHz that is 192000 frames away; advance
	// across it in two calls so the second call's w_start actually lands
	// past 1536 and swapSequences sees the transition as due.
	client.Advance(200000)
	client.Advance(5000)

	sawOff := false
	for i := 0; i < out.GetEventCount(); i++ {
		_, d, _ := out.GetEvent(i)
		if d[0] == 0x80 {
			sawOff = true
		}
	}
	if !sawOff {
		t.Fatal("Stop did not silence the sounding note")
	}
	if seq.Track(0).Current() != noSchedule {
		t.Errorf("Track(0).Current() = %d, want idle", seq.Track(0).Current())
	}
}

func TestStopAllSilencesEveryTrackImmediately(t *testing.T) {
	project, seq, client, out := newHarness(t)
	project.Tracks[0].Sequences[0].AddNote(0, 100*tick.PPQN, 60, 100)
	project.Tracks[1].Sequences[0].AddNote(0, 100*tick.PPQN, 61, 100)
	seq.ScheduleSequence(0, 0)
	seq.ScheduleSequence(1, 0)
	client.Advance(5000) // both notes sounding

	seq.StopAll()
	client.Advance(5000) // when_change=0 is always due: fires on the very next call

	offs := map[byte]bool{}
	for i := 0; i < out.GetEventCount(); i++ {
		_, d, _ := out.GetEvent(i)
		if d[0]&0xF0 == 0x80 { // track 1 sends on channel 1 (0x81)
			offs[d[1]] = true
		}
	}
	if !offs[60] || !offs[61] {
		t.Fatalf("StopAll did not silence both tracks, got note-offs %v", offs)
	}
	if seq.Track(0).Current() != noSchedule || seq.Track(1).Current() != noSchedule {
		t.Errorf("Current() = (%d, %d), want both idle", seq.Track(0).Current(), seq.Track(1).Current())
	}
}

func TestMutedTrackEmitsNothing(t *testing.T) {
	project, seq, client, out := newHarness(t)
	project.Tracks[0].Sequences[0].AddNote(0, tick.PPQN, 60, 100)
	project.Tracks[0].Muted = true
	seq.ScheduleSequence(0, 0)
	client.Advance(25000)
	if n := out.GetEventCount(); n != 0 {
		t.Fatalf("got %d events on a muted track, want 0", n)
	}
}

func TestEmptyRepeatedSequenceStaysArmedAcrossProcessCalls(t *testing.T) {
	_, seq, client, out := newHarness(t)
	// FlagRepeated is set by NewTrack; no AddNote, so the walker never
	// finds an event to relaunch from.
	seq.ScheduleSequence(0, 0)

	client.Advance(20000)
	if seq.Track(0).Current() != 0 {
		t.Fatalf("Track(0).Current() = %d after one pass, want still armed at 0", seq.Track(0).Current())
	}
	client.Advance(20000)
	if seq.Track(0).Current() != 0 {
		t.Fatalf("Track(0).Current() = %d after a second pass, want still armed at 0", seq.Track(0).Current())
	}
	if n := out.GetEventCount(); n != 0 {
		t.Fatalf("got %d events from an empty sequence, want 0", n)
	}
}
