// Package midihw wires gitlab.com/gomidi/midi/v2 (backed by rtmididrv) to
// the launchpad.Driver and router.Router interfaces, so the core never
// imports a MIDI transport library directly. It hot-plug scans for a
// Launchpad MK1 by port-name prefix, grounded on midi/manager.go's scan
// loop and on the preferred/excluded-pattern watcher in
// chase3718-lou-guitar/go/midi.go, adapted to the MK1's plain note/CC
// protocol instead of Launchpad X's SysEx Programmer-mode handshake.
package midihw

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"lseq/audio"
	"lseq/debug"
	"lseq/launchpad"
)

// rescanInterval matches the teacher's own poll rate for hot-plug checks.
const rescanInterval = time.Second

// isLaunchpad reports whether a port name matches the MK1's published
// port-name prefixes.
func isLaunchpad(name string) bool {
	return strings.HasPrefix(name, "Launchpad:") || strings.HasPrefix(name, "Launchpad MIDI")
}

// Port adapts an audio.BufferPort to a real MIDI output port: Router
// reserves events into the buffer during Process, and Flush (called once
// per process cycle, after Process returns) drains them out over the
// wire in reservation order.
type Port struct {
	*audio.BufferPort

	mu   sync.Mutex
	send func(msg []byte) error
}

// NewPort returns a Port with capacity reservations per cycle. send may
// be nil, making Flush a no-op until SetSendFunc supplies one.
func NewPort(capacity int, send func(msg []byte) error) *Port {
	return &Port{BufferPort: audio.NewBufferPort(capacity), send: send}
}

// SetSendFunc rewires the real transport, letting a hot-plug manager
// attach or detach a synth output without Router ever noticing.
func (p *Port) SetSendFunc(send func(msg []byte) error) {
	p.mu.Lock()
	p.send = send
	p.mu.Unlock()
}

// Flush sends every event reserved this cycle, in order, then clears the
// buffer for the next one.
func (p *Port) Flush() {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send != nil {
		n := p.GetEventCount()
		for i := 0; i < n; i++ {
			if _, data, ok := p.GetEvent(i); ok {
				_ = send(data)
			}
		}
	}
	p.Clear()
}

// Manager owns the rtmidi driver handle and the currently-open Launchpad
// connection (if any), rescanning on a ticker to pick up hot-plug/unplug.
// It never calls Driver.SetSendFunc directly: setSend is the caller's
// hook for composing the real hardware send with anything else (such as
// a terminal mirror) that must see the same outgoing bytes.
type Manager struct {
	mu sync.Mutex

	inPort  drivers.In
	outPort drivers.Out
	stopFn  func()

	connectedName string

	driver  *launchpad.Driver
	setSend func(send func(data [3]byte) error)

	synth         *Port
	synthPortName string
}

// NewManager returns a Manager feeding incoming pad messages into driver
// and, once a synth output matching synthPortName is found, attaching it
// to synthPort (which the caller wires to router.Router as its output
// port). synthPortName may be empty to skip synth output entirely.
// setSend replaces driver's outgoing send func whenever a Launchpad
// connects or disconnects.
func NewManager(driver *launchpad.Driver, setSend func(send func(data [3]byte) error), synthPort *Port, synthPortName string) *Manager {
	return &Manager{driver: driver, setSend: setSend, synth: synthPort, synthPortName: synthPortName}
}

// Run blocks, rescanning every rescanInterval, until stop is closed.
func (m *Manager) Run(stop <-chan struct{}) {
	m.scan()
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			m.close()
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Manager) scan() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins := gomidi.GetInPorts()
	outs := gomidi.GetOutPorts()

	if m.connectedName != "" {
		for _, in := range ins {
			if in.String() == m.connectedName {
				return
			}
		}
		debug.Log("startup", "launchpad %q disappeared", m.connectedName)
		m.closeLocked()
	}

	for i, in := range ins {
		name := in.String()
		if !isLaunchpad(name) {
			continue
		}
		var out drivers.Out
		for j, o := range outs {
			if strings.EqualFold(o.String(), name) {
				out = outs[j]
				break
			}
		}
		if err := m.openLocked(ins[i], out); err != nil {
			debug.Log("startup", "open launchpad %q: %v", name, err)
			continue
		}
		break
	}

	if m.synth != nil && m.synthPortName != "" {
		for j, o := range outs {
			if strings.EqualFold(o.String(), m.synthPortName) {
				if send, err := gomidi.SendTo(outs[j]); err == nil {
					m.synth.SetSendFunc(func(data []byte) error { return send(data) })
				}
				break
			}
		}
	}
}

func (m *Manager) openLocked(in drivers.In, out drivers.Out) error {
	var send func(data [3]byte) error
	if out != nil {
		raw, err := gomidi.SendTo(out)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		send = func(data [3]byte) error { return raw(data[:]) }
	}

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		m.driver.HandleRaw([]byte(msg))
	}, gomidi.HandleError(func(err error) {
		debug.Log("startup", "launchpad listen error: %v", err)
	}))
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	m.setSend(send)
	_ = m.driver.Reset()
	_ = m.driver.SelectGridLayout()
	m.inPort, m.outPort, m.stopFn = in, out, stop
	m.connectedName = in.String()
	debug.Log("startup", "connected launchpad %q", m.connectedName)
	return nil
}

func (m *Manager) closeLocked() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	if m.outPort != nil {
		_ = m.outPort.Close()
		m.outPort = nil
	}
	m.setSend(nil)
	m.connectedName = ""
}

func (m *Manager) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}
