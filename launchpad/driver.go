package launchpad

import (
	"sync"
	"sync/atomic"
)

// Driver adapts the wire protocol to a transport-agnostic send func and a
// registered key callback. It holds no knowledge of the underlying MIDI
// library; midihw wires a real Launchpad's input/output to it.
type Driver struct {
	send func(data [3]byte) error

	mu sync.Mutex
	cb func(KeyEvent)

	display *DisplayState

	malformed atomic.Uint64
}

// New returns a Driver that writes outgoing messages through send. send
// may be nil, which makes every output method a no-op (used when no pad
// is attached).
func New(send func(data [3]byte) error) *Driver {
	return &Driver{send: send, display: NewDisplayState()}
}

// SetSendFunc replaces the transport send func, letting a hot-plug
// manager rewire output when a pad connects or disconnects. A nil send
// makes every output method a no-op.
func (d *Driver) SetSendFunc(send func(data [3]byte) error) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

// SetKeyCallback registers the callback invoked from HandleRaw. Per the
// pad input thread's contract, HandleRaw takes the lock only long enough
// to copy the callback pointer, then calls it unlocked — so cb may itself
// call back into Driver's output methods without deadlocking.
func (d *Driver) SetKeyCallback(cb func(KeyEvent)) {
	d.mu.Lock()
	d.cb = cb
	d.mu.Unlock()
}

// HandleRaw classifies one incoming raw MIDI message and dispatches it to
// the registered callback. Messages whose length isn't 3 are silently
// discarded and counted (MalformedKeyMessage, spec §7).
func (d *Driver) HandleRaw(data []byte) {
	if len(data) != 3 {
		d.malformed.Add(1)
		return
	}
	ev, ok := Classify(data[0], data[1], data[2])
	if !ok {
		return
	}
	d.mu.Lock()
	cb := d.cb
	d.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// MalformedCount returns the number of malformed incoming messages seen.
func (d *Driver) MalformedCount() uint64 {
	return d.malformed.Load()
}

func (d *Driver) write(msg [3]byte) error {
	d.mu.Lock()
	send := d.send
	d.mu.Unlock()
	if send == nil {
		return nil
	}
	return send(msg)
}

// SetColor sets one grid cell's LED.
func (d *Driver) SetColor(x, y int, color byte) error {
	return d.write(SetGrid(x, y, color))
}

// SetSideColor sets one side-column LED.
func (d *Driver) SetSideColor(y int, color byte) error {
	return d.write(SetSide(y, color))
}

// SetTopColor sets one top-row LED.
func (d *Driver) SetTopColor(code int, color byte) error {
	return d.write(SetTop(code, color))
}

// FillMatrix repaints the whole 8x8 grid via the rapid-update command,
// calling cb once per cell.
func (d *Driver) FillMatrix(cb func(x, y int) byte) error {
	for _, msg := range BuildFillMatrix(cb) {
		if err := d.write(msg); err != nil {
			return err
		}
	}
	return nil
}

// Flip flips the display's update/visible buffers.
func (d *Driver) Flip(copy bool) error {
	return d.write(d.display.Flip(copy))
}

// Reset sends the device reset command.
func (d *Driver) Reset() error {
	return d.write(Reset())
}

// SelectGridLayout selects the 8x8 grid layout.
func (d *Driver) SelectGridLayout() error {
	return d.write(SelectGridLayout())
}
