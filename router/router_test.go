package router

import (
	"testing"

	"lseq/audio"
)

type fakeClient struct {
	last int64
}

func (c *fakeClient) Activate() error                      { return nil }
func (c *fakeClient) Deactivate() error                     { return nil }
func (c *fakeClient) LastFrameTime() int64                  { return c.last }
func (c *fakeClient) FrameTime() int64                      { return c.last }
func (c *fakeClient) SampleRate() int64                     { return 48000 }
func (c *fakeClient) SetProcessCallback(cb func(nframes int)) {}

func TestRouterProcessEmitsImmediateBeforeQueuedAtSameFrame(t *testing.T) {
	out := audio.NewBufferPort(8)
	r := New(out, nil)
	client := &fakeClient{last: 1000}

	r.EnqueueQueued(1005, [3]byte{0x90, 60, 100})
	r.EnqueueImmediate(1000, [3]byte{0x80, 60, 0})

	r.Process(client, 100)

	if n := out.GetEventCount(); n != 2 {
		t.Fatalf("GetEventCount() = %d, want 2", n)
	}
	t0, d0, _ := out.GetEvent(0)
	if t0 != 0 || d0[0] != 0x80 {
		t.Fatalf("event 0 = (%d,%v), want immediate note-off at offset 0", t0, d0)
	}
	t1, d1, _ := out.GetEvent(1)
	if t1 != 5 || d1[0] != 0x90 {
		t.Fatalf("event 1 = (%d,%v), want queued note-on at offset 5", t1, d1)
	}
}

func TestRouterProcessClampsLateEventsToOffsetZero(t *testing.T) {
	out := audio.NewBufferPort(8)
	r := New(out, nil)
	client := &fakeClient{last: 1000}

	r.EnqueueQueued(900, [3]byte{0x90, 60, 100}) // stamped before the window

	r.Process(client, 100)

	if n := out.GetEventCount(); n != 1 {
		t.Fatalf("GetEventCount() = %d, want 1", n)
	}
	offset, _, _ := out.GetEvent(0)
	if offset != 0 {
		t.Fatalf("late event landed at offset %d, want 0", offset)
	}
}

func TestRouterProcessLeavesFutureEventsQueued(t *testing.T) {
	out := audio.NewBufferPort(8)
	r := New(out, nil)
	client := &fakeClient{last: 1000}

	r.EnqueueQueued(1200, [3]byte{0x90, 60, 100}) // due in a later window

	r.Process(client, 100)
	if n := out.GetEventCount(); n != 0 {
		t.Fatalf("GetEventCount() = %d, want 0 (event is not due yet)", n)
	}

	client.last = 1150
	r.Process(client, 100)
	if n := out.GetEventCount(); n != 1 {
		t.Fatalf("GetEventCount() after the due window = %d, want 1", n)
	}
}

func TestRouterProcessCountsUnderrunWhenOutputPortIsFull(t *testing.T) {
	out := audio.NewBufferPort(1)
	r := New(out, nil)
	client := &fakeClient{last: 0}

	r.EnqueueImmediate(0, [3]byte{0x90, 60, 100})
	r.EnqueueImmediate(0, [3]byte{0x90, 61, 100})

	r.Process(client, 100)

	if got := r.Underruns(); got != 1 {
		t.Fatalf("Underruns() = %d, want 1", got)
	}
	if n := out.GetEventCount(); n != 1 {
		t.Fatalf("GetEventCount() = %d, want 1 (port capacity is 1)", n)
	}
}

func TestRouterProcessWithNilOutputPortIsANoOp(t *testing.T) {
	r := New(nil, nil)
	client := &fakeClient{last: 0}
	r.EnqueueImmediate(0, [3]byte{0x90, 60, 100})
	r.Process(client, 100) // must not panic
}
