package launchpad

import "sync"

// Mirror decodes the same outgoing wire bytes the Driver sends to a real
// pad and keeps a terminal-renderable copy of the two display buffers, so
// a TUI can show what the hardware would be showing without touching any
// ui.Screen internals. Wire it up by passing Mirror.Handle as a second
// sink alongside (or instead of) the real MIDI send func.
type Mirror struct {
	mu      sync.Mutex
	banks   [2][8][8]byte
	sides   [2][8]byte
	tops    [2]map[int]byte
	display int // index of the currently visible buffer
	fillIdx int // cursor into an in-progress BuildFillMatrix sequence

	notify chan struct{}
}

// NewMirror returns an empty Mirror on buffer 0.
func NewMirror() *Mirror {
	return &Mirror{
		tops:   [2]map[int]byte{{}, {}},
		notify: make(chan struct{}, 1),
	}
}

func (m *Mirror) updateBank() int {
	return m.display ^ 1
}

// Handle decodes one outgoing wire message, matching Driver.write's byte
// shapes exactly: SetGrid/SetSide always target the update buffer, a
// BuildFillMatrix sequence fills it two cells at a time, and the flip
// control byte swaps which buffer is visible.
func (m *Mirror) Handle(data [3]byte) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		select {
		case m.notify <- struct{}{}:
		default:
		}
	}()

	switch data[0] {
	case 0x90, 0x80:
		if data[1]&0x0F == 0x08 {
			m.sides[m.updateBank()][data[1]>>4] = data[2]
		} else {
			m.banks[m.updateBank()][data[1]>>4][data[1]&0x0F] = data[2]
		}
	case 0x92:
		y := m.fillIdx / 4
		x := (m.fillIdx % 4) * 2
		if y < 8 {
			m.banks[m.updateBank()][y][x] = data[1]
			m.banks[m.updateBank()][y][x+1] = data[2]
		}
		m.fillIdx++
	case 0xB0:
		switch {
		case data[1] == 0x01 && data[2] == 0x00:
			m.fillIdx = 0
		case data[1] >= 104 && data[1] <= 111:
			m.tops[m.updateBank()][200+int(data[1]-104)] = data[2]
		case data[1] == 0x00 && data[2]&0x20 != 0:
			newDisplay := 0
			if data[2]&0x01 != 0 {
				newDisplay = 1
			}
			if data[2]&0x10 != 0 {
				newUpdate := newDisplay ^ 1
				m.banks[newUpdate] = m.banks[newDisplay]
				m.sides[newUpdate] = m.sides[newDisplay]
				for k, v := range m.tops[newDisplay] {
					m.tops[newUpdate][k] = v
				}
			}
			m.display = newDisplay
		}
	}
	return nil
}

// Grid returns a snapshot of the currently visible 8x8 grid.
func (m *Mirror) Grid() [8][8]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banks[m.display]
}

// Side returns a snapshot of the currently visible side column.
func (m *Mirror) Side() [8]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sides[m.display]
}

// Top returns the currently visible top-row LED states, indexed by
// code-TopUp (TopUp, TopDown, TopLeft, TopRight, TopSession, TopUser1,
// TopUser2, TopMixer, in that order).
func (m *Mirror) Top() [8]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [8]byte
	for code, v := range m.tops[m.display] {
		if i := code - TopUp; i >= 0 && i < 8 {
			out[i] = v
		}
	}
	return out
}

// Notify returns the channel that receives a value (non-blocking, capacity
// 1) every time Handle changes visible or pending state.
func (m *Mirror) Notify() <-chan struct{} {
	return m.notify
}

// ToRGB converts one pad color byte to an approximate RGB triple for
// terminal rendering: the device only has red/green LEDs, so blue stays 0.
func ToRGB(color byte) [3]uint8 {
	r := color & 0x03
	g := (color >> 4) & 0x03
	return [3]uint8{r * 85, g * 85, 0}
}
