package seqdata

import "lseq/tick"

// SequencesPerTrack and TracksPerProject are the fixed capacities of Track
// and Project (spec §3): sequences and tracks live for the lifetime of the
// project and are never reallocated during playback.
const (
	SequencesPerTrack = 64
	TracksPerProject  = 16
)

// DefaultSequenceLength is the length new Sequences are constructed with.
const DefaultSequenceLength = 8 * tick.PPQN

// Track is a fixed-capacity array of Sequences, a 4-bit MIDI channel, and a
// mute flag.
type Track struct {
	Sequences [SequencesPerTrack]*Sequence
	Channel   uint8 // 4-bit: 0..15
	Muted     bool
}

// NewTrack returns a Track with every Sequence default-constructed per
// spec §3: length 8*PPQN, REPEATED set.
func NewTrack(channel uint8) *Track {
	t := &Track{Channel: channel & 0x0F}
	for i := range t.Sequences {
		t.Sequences[i] = NewSequence(DefaultSequenceLength, FlagRepeated)
	}
	return t
}

// Project is a fixed-capacity array of Tracks plus a BPM scalar.
type Project struct {
	Tracks [TracksPerProject]*Track
	BPM    float64
}

// NewProject returns a Project with 16 tracks, channels 0..15, BPM 120.
func NewProject() *Project {
	p := &Project{BPM: 120.0}
	for i := range p.Tracks {
		p.Tracks[i] = NewTrack(uint8(i))
	}
	return p
}
