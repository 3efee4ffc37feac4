package ui

import "lseq/launchpad"

// Screen is the shared protocol every screen implements: OnKey runs on
// the pad callback thread and must only touch the screen's own
// UpdateBlock; Update runs on the edit thread and does the real work.
type Screen interface {
	OnKey(ev Event)
	Update()
	// OnEnter is called on the pad callback thread when the machine
	// switches to this screen, so it can force its next Update to
	// repaint even with no pending key events.
	OnEnter()
}

// Screen indices, selected by the top-row SESSION/USER1/USER2 buttons.
const (
	ScreenTrack = iota
	ScreenSong
	ScreenSequence
)

// Machine owns the three screens and the MIXER-held shift modifier, and
// is the pad driver's registered key callback.
type Machine struct {
	driver  *launchpad.Driver
	waker   *Waker
	shift   bool
	screens [3]Screen
	active  int
}

// NewMachine wires driver's incoming key callback to the screen machine
// and starts on TrackScreen.
func NewMachine(driver *launchpad.Driver, waker *Waker, track, song, sequence Screen) *Machine {
	m := &Machine{
		driver:  driver,
		waker:   waker,
		screens: [3]Screen{track, song, sequence},
		active:  ScreenTrack,
	}
	driver.SetKeyCallback(m.onRawKey)
	return m
}

// onRawKey runs on the pad callback thread. Top-row buttons are the
// screen machine's own concern (screen select, shift); everything else
// is forwarded to the active screen's OnKey.
func (m *Machine) onRawKey(ev launchpad.KeyEvent) {
	if ev.Type == launchpad.KeyTop {
		switch ev.Code {
		case launchpad.TopMixer:
			m.shift = ev.Press
			m.screens[m.active].OnKey(Event{KeyEvent: ev, Shift: m.shift})
			return
		case launchpad.TopSession:
			if ev.Press {
				m.switchTo(ScreenTrack)
			}
			return
		case launchpad.TopUser1:
			if ev.Press {
				m.switchTo(ScreenSong)
			}
			return
		case launchpad.TopUser2:
			if ev.Press {
				m.switchTo(ScreenSequence)
			}
			return
		}
	}
	m.screens[m.active].OnKey(Event{KeyEvent: ev, Shift: m.shift})
}

func (m *Machine) switchTo(screen int) {
	if m.active == screen {
		return
	}
	m.active = screen
	m.screens[screen].OnEnter()
	m.waker.Wake()
}

// Active returns the currently selected screen index.
func (m *Machine) Active() int {
	return m.active
}

// Update runs the active screen's edit-thread update pass.
func (m *Machine) Update() {
	m.screens[m.active].Update()
}
