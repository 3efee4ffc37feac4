package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// SoftClient is a deterministic, non-cgo Client driven by a time.Ticker: it
// advances a monotonic frame counter and invokes the registered process
// callback with the number of frames elapsed, exactly as a real JACK
// client would call back into Router/Sequencer. period controls how often
// the callback fires; sampleRate controls the tick<->frame conversion.
type SoftClient struct {
	sampleRate int64
	period     time.Duration

	frame   atomic.Int64 // frame at the start of the most recent process call
	cbMu    sync.Mutex
	cb      func(nframes int)
	stop    chan struct{}
	running atomic.Bool
}

// NewSoftClient creates a client ticking every period at sampleRate frames
// per second.
func NewSoftClient(sampleRate int64, period time.Duration) *SoftClient {
	return &SoftClient{sampleRate: sampleRate, period: period, stop: make(chan struct{})}
}

func (c *SoftClient) SetProcessCallback(cb func(nframes int)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.cb = cb
}

func (c *SoftClient) SampleRate() int64 {
	return c.sampleRate
}

// LastFrameTime returns the frame index at the start of the most recently
// started process window.
func (c *SoftClient) LastFrameTime() int64 {
	return c.frame.Load()
}

// FrameTime returns an estimate of "now", which for the software clock is
// identical to LastFrameTime: there is no mid-cycle drift to model.
func (c *SoftClient) FrameTime() int64 {
	return c.frame.Load()
}

// Activate starts the ticker goroutine that drives the process callback.
func (c *SoftClient) Activate() error {
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}
	nframes := int64(float64(c.sampleRate) * c.period.Seconds())
	if nframes < 1 {
		nframes = 1
	}
	go func() {
		ticker := time.NewTicker(c.period)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				last := c.frame.Load()
				c.cbMu.Lock()
				cb := c.cb
				c.cbMu.Unlock()
				if cb != nil {
					cb(int(nframes))
				}
				c.frame.Store(last + nframes)
			}
		}
	}()
	return nil
}

// Deactivate stops the ticker goroutine.
func (c *SoftClient) Deactivate() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	close(c.stop)
	c.stop = make(chan struct{})
	return nil
}

// Advance drives the clock by exactly nframes and invokes the process
// callback synchronously, bypassing the ticker. Used by tests that need
// frame-exact control over process windows.
func (c *SoftClient) Advance(nframes int) {
	last := c.frame.Load()
	c.cbMu.Lock()
	cb := c.cb
	c.cbMu.Unlock()
	if cb != nil {
		cb(nframes)
	}
	c.frame.Store(last + int64(nframes))
}
