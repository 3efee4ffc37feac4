package ui

import (
	"sync/atomic"
	"time"

	"lseq/launchpad"
	"lseq/router"
	"lseq/seqdata"
	"lseq/tick"
)

var velocityTable = [8]byte{127, 112, 96, 80, 64, 48, 32, 16}

const defaultVelocity = 100

// SequenceScreen implements the pad grid editor (spec §4.7, "hardest").
// A grid press adds a note, or extends the length of a held note in the
// same row; side buttons set velocity on held notes; shift turns grid
// presses into select/toggle and arrows into zoom/scroll.
type SequenceScreen struct {
	seq     *seqdata.Sequence
	rtr     *router.Router
	driver  *launchpad.Driver
	channel byte

	timeScaler *tick.TimeScaler
	noteScaler *tick.NoteScaler
	base       int

	block  UpdateBlock
	forced atomic.Bool

	heldRows    [8]uint8 // bit x set = grid button (x,y) currently held
	sideHeld    uint8    // bit y set = side button y currently held
	originPress map[[2]int]bool
	modified    map[[2]int]bool

	shiftOnly      bool
	shiftHeldSince time.Time

	lastView View
}

// NewSequenceScreen returns a SequenceScreen with no sequence attached
// yet; call SetSequence before it is made active.
func NewSequenceScreen(rtr *router.Router, driver *launchpad.Driver, channel byte) *SequenceScreen {
	base := 36
	return &SequenceScreen{
		rtr:         rtr,
		driver:      driver,
		channel:     channel,
		timeScaler:  tick.NewTimeScaler(),
		noteScaler:  tick.NewNoteScaler(tick.Chromatic, base, 8),
		base:        base,
		originPress: map[[2]int]bool{},
		modified:    map[[2]int]bool{},
	}
}

// SetSequence points the screen at seq, resetting all held/edit state.
func (s *SequenceScreen) SetSequence(seq *seqdata.Sequence) {
	s.seq = seq
	s.heldRows = [8]uint8{}
	s.sideHeld = 0
	s.originPress = map[[2]int]bool{}
	s.modified = map[[2]int]bool{}
	s.forced.Store(true)
}

func (s *SequenceScreen) OnKey(ev Event) {
	s.block.Push(ev)
}

func (s *SequenceScreen) OnEnter() {
	s.forced.Store(true)
}

func (s *SequenceScreen) Update() {
	events := s.block.Drain()
	if s.seq == nil {
		return
	}
	changed := false
	for _, ev := range events {
		switch ev.Type {
		case launchpad.KeyGrid:
			if ev.Shift {
				s.shiftOnly = false
			}
			changed = s.handleGrid(ev) || changed
		case launchpad.KeySide:
			if ev.Shift {
				s.shiftOnly = false
			}
			changed = s.handleSide(ev) || changed
		case launchpad.KeyTop:
			changed = s.handleTop(ev) || changed
		}
	}
	if !changed && !s.forced.Swap(false) {
		return
	}
	s.repaint()
}

func (s *SequenceScreen) handleTop(ev Event) bool {
	if ev.Code == launchpad.TopMixer {
		if ev.Press {
			s.shiftOnly = true
			s.shiftHeldSince = time.Now()
		} else {
			if s.shiftOnly && time.Since(s.shiftHeldSince) >= time.Second {
				s.seq.Deselect()
				s.shiftOnly = false
				return true
			}
			s.shiftOnly = false
		}
		return false
	}
	if !ev.Press {
		return false
	}
	if ev.Shift {
		switch ev.Code {
		case launchpad.TopUp:
			s.timeScaler.ScaleIn()
		case launchpad.TopDown:
			s.timeScaler.ScaleOut()
		case launchpad.TopLeft:
			s.timeScaler.Scroll(-1)
		case launchpad.TopRight:
			s.timeScaler.Scroll(1)
		default:
			return false
		}
		return true
	}
	if !s.hasSelection() {
		return false
	}
	switch ev.Code {
	case launchpad.TopLeft:
		s.moveSelected(-1, 0)
	case launchpad.TopRight:
		s.moveSelected(1, 0)
	case launchpad.TopUp:
		s.moveSelected(0, 1)
	case launchpad.TopDown:
		s.moveSelected(0, -1)
	default:
		return false
	}
	return true
}

func (s *SequenceScreen) handleGrid(ev Event) bool {
	x, y := ev.X, ev.Y
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return false
	}
	cell := [2]int{x, y}

	if ev.Shift {
		if !ev.Press {
			return false
		}
		startTick := s.timeScaler.ToTicks(int64(x))
		pitch := byte(s.noteScaler.ToNote(y))
		s.seq.SelectRange(startTick, startTick+1, pitch, pitch+1, true)
		return true
	}

	if ev.Press {
		row := s.heldRows[y]
		if row != 0 {
			xNear := nearestLowerBit(row, x)
			if xNear < 0 {
				xNear = x
			}
			contBonus := int64(1)
			if s.lastView.Get(x, y)&Cont != 0 {
				contBonus = 0
			}
			lengthQuanta := int64(x-xNear) + contBonus
			lengthTicks := s.timeScaler.QuantumToTicks(lengthQuanta)
			baseTick := s.timeScaler.ToTicks(int64(xNear))
			pitch := byte(s.noteScaler.ToNote(y))
			s.seq.MarkRange(baseTick, baseTick+1, pitch, pitch+1)
			s.seq.SetNoteLengths(lengthTicks)
			s.modified[[2]int{xNear, y}] = true
		} else {
			startTick := s.timeScaler.ToTicks(int64(x))
			pitch := byte(s.noteScaler.ToNote(y))
			s.seq.AddNote(startTick, s.timeScaler.Step(), pitch, defaultVelocity)
			s.originPress[cell] = true
			s.modified[cell] = true
			s.rtr.EnqueueImmediate(0, [3]byte{seqdata.StatusNoteOn | s.channel, pitch, defaultVelocity})
		}
		s.heldRows[y] |= 1 << uint(x)
		return true
	}

	if s.heldRows[y]&(1<<uint(x)) == 0 {
		return false
	}
	s.heldRows[y] &^= 1 << uint(x)
	if s.originPress[cell] {
		pitch := byte(s.noteScaler.ToNote(y))
		s.rtr.EnqueueImmediate(0, [3]byte{seqdata.StatusNoteOff | s.channel, pitch, 0})
		if !s.modified[cell] {
			startTick := s.timeScaler.ToTicks(int64(x))
			s.seq.MarkRange(startTick, startTick+1, pitch, pitch+1)
			s.seq.RemoveMarked()
		}
		delete(s.originPress, cell)
		delete(s.modified, cell)
	}
	return true
}

func (s *SequenceScreen) handleSide(ev Event) bool {
	y := ev.Y
	if y < 0 || y > 7 {
		return false
	}
	if ev.Shift {
		if y == 0 && ev.Press {
			s.timeScaler.SwitchTriplets()
			return true
		}
		return false
	}
	if !ev.Press {
		s.sideHeld &^= 1 << uint(y)
		return false
	}
	s.sideHeld |= 1 << uint(y)
	velocity := velocityTable[highestBitIndex(s.sideHeld)]

	changed := false
	for row := 0; row < 8; row++ {
		held := s.heldRows[row]
		if held == 0 {
			continue
		}
		minX, maxX := bitRange(held)
		pitch := byte(s.noteScaler.ToNote(row))
		startTick := s.timeScaler.ToTicks(int64(minX))
		endTick := s.timeScaler.ToTicks(int64(maxX)) + s.timeScaler.Step()
		s.seq.MarkRange(startTick, endTick, pitch, pitch+1)
		s.seq.SetNoteVelocities(velocity)
		for x := minX; x <= maxX; x++ {
			if held&(1<<uint(x)) != 0 {
				s.modified[[2]int{x, row}] = true
			}
		}
		changed = true
	}
	return changed
}

func (s *SequenceScreen) hasSelection() bool {
	h := s.seq.Open()
	defer h.Close()
	for _, e := range h.Events() {
		if e.Selected {
			return true
		}
	}
	return false
}

func (s *SequenceScreen) moveSelected(dq, dn int) {
	step := s.timeScaler.QuantumToTicks(int64(dq))
	s.seq.MoveSelectedNotes(func(t int64, pitch byte) (int64, byte) {
		newTick := t + step
		if newTick < 0 {
			newTick = 0
		}
		newPitch := pitch
		if dn != 0 {
			if row := s.noteScaler.ToGrid(int(pitch)); row >= 0 {
				if newRow := row + dn; newRow >= 0 && newRow < 8 {
					newPitch = byte(s.noteScaler.ToNote(newRow))
				}
			}
		}
		return newTick, newPitch
	})
}

func (s *SequenceScreen) repaint() {
	h := s.seq.Open()
	events := h.Events()
	length := h.Length()
	h.Close()

	var view View
	for _, e := range events {
		if e.Status != seqdata.StatusNoteOn {
			continue
		}
		startQ := s.timeScaler.ToQuantum(e.Tick)
		if startQ < 0 || startQ > 7 {
			continue
		}
		y := s.noteScaler.ToGrid(int(e.Data0))
		if y < 0 {
			continue
		}
		lengthQuanta := int64(1)
		if e.Link >= 0 {
			off := events[e.Link]
			lengthQuanta = s.timeScaler.LengthToQuantum(off.Tick - e.Tick)
			if lengthQuanta < 1 {
				lengthQuanta = 1
			}
		}
		endQ := startQ + lengthQuanta
		for x := startQ; x < 8 && x < endQ; x++ {
			flags := HasNote
			if view.Get(int(x), y)&HasNote != 0 {
				flags |= Multiple
			}
			if x > startQ {
				flags |= Cont
			}
			if e.Selected {
				flags |= IsSelected
			}
			if !s.timeScaler.IsScaleAccurate(e.Tick) {
				flags |= Inaccurate
			}
			view.Set(int(x), y, flags)
		}
	}
	for y := 0; y < 8; y++ {
		pitch := s.noteScaler.ToNote(y)
		inScale := s.noteScaler.InScale(pitch)
		isRoot := ((pitch-s.base)%12+12)%12 == 0
		for x := 0; x < 8; x++ {
			if inScale {
				view.Set(x, y, InScale)
			}
			if isRoot {
				view.Set(x, y, ScaleMark)
			}
		}
	}
	if endQ := s.timeScaler.ToQuantum(length); endQ >= 0 && endQ < 8 {
		for y := 0; y < 8; y++ {
			view.Set(int(endQ), y, SeqEnd)
		}
	}
	s.lastView = view

	s.driver.FillMatrix(func(x, y int) byte {
		return colorForFlags(view.Get(x, y), s.noteScaler.InScale(s.noteScaler.ToNote(y)))
	})
	s.driver.Flip(true)
}

func colorForFlags(f Flags, inScale bool) byte {
	switch {
	case f&IsSelected != 0:
		return launchpad.ClYellow
	case f&HasNote != 0 && f&Cont != 0:
		return launchpad.ClAmberL
	case f&HasNote != 0 && f&Multiple != 0:
		return launchpad.ClAmber
	case f&HasNote != 0:
		return launchpad.ClGreen
	case f&SeqEnd != 0:
		return launchpad.ClRedM
	case inScale:
		return launchpad.ClGreenL
	default:
		return launchpad.ClBlack
	}
}

// nearestLowerBit returns the highest set bit at or below x in row, or -1.
func nearestLowerBit(row uint8, x int) int {
	for i := x; i >= 0; i-- {
		if row&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

// highestBitIndex returns the index of the highest set bit in b, or 0 if
// b is zero.
func highestBitIndex(b uint8) int {
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			return i
		}
	}
	return 0
}

// bitRange returns the lowest and highest set bit indices in b.
func bitRange(b uint8) (min, max int) {
	min, max = 7, 0
	for i := 0; i < 8; i++ {
		if b&(1<<uint(i)) != 0 {
			if i < min {
				min = i
			}
			if i > max {
				max = i
			}
		}
	}
	return
}
