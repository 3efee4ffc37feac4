// Package router implements the per-output-port merge of the immediate and
// queued MIDI message queues into the audio-thread output buffer for the
// current process window (spec §4.4).
package router

import (
	"sync/atomic"

	"lseq/audio"
	"lseq/midiring"
)

// DefaultRingCapacity is the number of MidiMessages each queue can hold
// before Write starts dropping and counting overruns.
const DefaultRingCapacity = 1024

// Router owns one output port (a MIDI sink) and one input port (reserved
// for future keyboard routing), and the two SPSC queues that feed the
// output port during Process.
type Router struct {
	out audio.Port
	in  audio.Port

	immediate *midiring.Ring[midiring.MidiMessage]
	queued    *midiring.Ring[midiring.MidiMessage]

	underruns atomic.Uint64
}

// New creates a Router writing to out and reading (for future use) from in.
// Either port may be nil.
func New(out, in audio.Port) *Router {
	return &Router{
		out:       out,
		in:        in,
		immediate: midiring.New[midiring.MidiMessage](DefaultRingCapacity),
		queued:    midiring.New[midiring.MidiMessage](DefaultRingCapacity),
	}
}

// EnqueueImmediate stamps msg with frameNow and pushes it onto the
// immediate queue, for events that should sound as soon as possible (pad
// audition notes, all-notes-off on a sequence transition).
func (r *Router) EnqueueImmediate(frameNow int64, bytes [3]byte) bool {
	return r.immediate.Write(midiring.MidiMessage{FrameStamp: frameNow, Length: 3, Bytes: bytes})
}

// EnqueueQueued pushes a message due at the given absolute frame, for
// events scheduled ahead of time by the Sequencer.
func (r *Router) EnqueueQueued(frameStamp int64, bytes [3]byte) bool {
	return r.queued.Write(midiring.MidiMessage{FrameStamp: frameStamp, Length: 3, Bytes: bytes})
}

// Underruns returns the number of times EventReserve failed.
func (r *Router) Underruns() uint64 {
	return r.underruns.Load()
}

// Process drains the input port (reserved), clears the output port, then
// walks the immediate queue followed by the queued queue, emitting every
// message whose frame stamp falls within [last, last+nframes) into the
// output port at its relative offset. Events stamped before last are
// clamped to offset 0 (late); events stamped at or after last+nframes are
// left queued for a future window.
func (r *Router) Process(client audio.Client, nframes int) {
	if r.in != nil {
		r.in.Clear()
	}
	if r.out == nil {
		return
	}
	r.out.Clear()

	last := client.LastFrameTime()
	for _, q := range [...]*midiring.Ring[midiring.MidiMessage]{r.immediate, r.queued} {
		for {
			msg, ok := q.Peek()
			if !ok {
				break
			}
			t := msg.FrameStamp - last
			if t >= int64(nframes) {
				break
			}
			if t < 0 {
				t = 0
			}
			q.Advance()

			buf := r.out.EventReserve(int(t), int(msg.Length))
			if buf == nil {
				r.underruns.Add(1)
				continue
			}
			copy(buf, msg.Bytes[:msg.Length])
		}
	}
}
