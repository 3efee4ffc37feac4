package ui

import (
	"sync/atomic"

	"lseq/launchpad"
)

// SongScreen is a placeholder: its only obligation is to redraw a
// checker pattern whenever it becomes active.
type SongScreen struct {
	driver *launchpad.Driver
	block  UpdateBlock
	forced atomic.Bool
}

// NewSongScreen returns a SongScreen drawing through driver.
func NewSongScreen(driver *launchpad.Driver) *SongScreen {
	return &SongScreen{driver: driver}
}

func (s *SongScreen) OnKey(ev Event) {
	s.block.Push(ev)
}

func (s *SongScreen) OnEnter() {
	s.forced.Store(true)
}

func (s *SongScreen) Update() {
	s.block.Drain()
	if !s.forced.Swap(false) {
		return
	}
	s.driver.FillMatrix(func(x, y int) byte {
		if (x+y)%2 == 0 {
			return launchpad.ClAmberM
		}
		return launchpad.ClBlack
	})
	s.driver.Flip(true)
}
