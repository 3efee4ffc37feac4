package launchpad

// DisplayState tracks which of the device's two display buffers is
// currently being drawn into (the update buffer) versus shown (the
// visible buffer), so Flip can alternate them without the caller tracking
// buffer indices itself.
type DisplayState struct {
	active int // 0 or 1: the currently visible buffer; active^1 is drawn into
}

// NewDisplayState returns a DisplayState starting on buffer 0.
func NewDisplayState() *DisplayState {
	return &DisplayState{}
}

// Flip swaps the update and visible buffers and returns the control
// message for it. copy=true requests the device copy the newly visible
// buffer's contents into the new update buffer, so a caller doing
// partial repaints doesn't have to resend unchanged cells.
func (d *DisplayState) Flip(copy bool) [3]byte {
	update := d.active
	display := d.active ^ 1

	b := byte(0x20)
	if display == 1 {
		b |= 0x01
	}
	if update == 1 {
		b |= 0x04
	}
	if copy {
		b |= 0x10
	}

	d.active ^= 1
	return [3]byte{0xB0, 0x00, b}
}
