// Package audio defines the interfaces the core (router, sequencer) expects
// from the audio server, and ships a deterministic software implementation
// so the core can be exercised without a real JACK client or cgo. A
// production binary wires gomidi/rtmididrv ports behind the same Port
// interface (see midihw) and can substitute a real JACK Client transport
// without touching router/sequencer.
package audio

// Client is the subset of a JACK-like audio client that the core consumes
// (spec §6): frame clock and process-callback registration.
type Client interface {
	Activate() error
	Deactivate() error
	LastFrameTime() int64
	FrameTime() int64
	SampleRate() int64
	SetProcessCallback(cb func(nframes int))
}

// Port is the subset of a JACK-like MIDI port that Router needs to drain
// its queues into, or to read incoming events from.
type Port interface {
	// Clear resets the port's event buffer for the current process cycle.
	Clear()
	// EventReserve reserves size bytes at frame offset t within the
	// current process window, returning a buffer to copy the payload
	// into. Returns a nil slice (no error) on underrun per spec §7.
	EventReserve(t, size int) []byte
	// GetEventCount and GetEvent expose buffered incoming events (input
	// ports only); unused by output ports.
	GetEventCount() int
	GetEvent(i int) (t int, data []byte, ok bool)
}
