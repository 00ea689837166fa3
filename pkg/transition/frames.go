package transition

import (
	"sync"
	"time"
)

// Frames schedules callbacks for the next animation frame.
type Frames interface {
	RequestFrame(cb func())
}

// FrameFunc adapts a function to Frames.
type FrameFunc func(cb func())

func (f FrameFunc) RequestFrame(cb func()) {
	f(cb)
}

// ManualFrames queues frame callbacks until Flush is called. It is meant for
// tests and for hosts that drive frames themselves.
type ManualFrames struct {
	mu    sync.Mutex
	queue []func()
}

func (f *ManualFrames) RequestFrame(cb func()) {
	f.mu.Lock()
	f.queue = append(f.queue, cb)
	f.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (f *ManualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Flush runs the callbacks queued before the call and returns how many ran.
// Callbacks requested while flushing wait for the next Flush.
func (f *ManualFrames) Flush() int {
	f.mu.Lock()
	queue := f.queue
	f.queue = nil
	f.mu.Unlock()

	for _, cb := range queue {
		cb()
	}
	return len(queue)
}

// TickerFrames runs queued callbacks on a fixed interval, emulating a
// display refresh.
type TickerFrames struct {
	mu     sync.Mutex
	queue  []func()
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewTickerFrames starts a frame driver ticking every interval.
// A non-positive interval defaults to 16ms.
func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	f := &TickerFrames{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *TickerFrames) RequestFrame(cb func()) {
	f.mu.Lock()
	f.queue = append(f.queue, cb)
	f.mu.Unlock()
}

// Close stops the driver. Queued callbacks are dropped.
func (f *TickerFrames) Close() {
	f.once.Do(func() {
		f.ticker.Stop()
		close(f.done)
	})
}

func (f *TickerFrames) run() {
	for {
		select {
		case <-f.ticker.C:
			f.mu.Lock()
			queue := f.queue
			f.queue = nil
			f.mu.Unlock()
			for _, cb := range queue {
				cb()
			}
		case <-f.done:
			return
		}
	}
}
