// Package vision holds the gocv-backed detectors and the per-pair
// processing unit that drives them over decoded frames. Every event kind
// shares the same frame-range lifecycle: start, per-frame check, end,
// then conversion into an immutable record.
package vision

import "sync"

// frameUnset marks a frame bound that has not been recorded yet.
const frameUnset = -1

// frameEvent carries the state common to all event kinds. Events are
// normally owned by a single scanning goroutine, but the mutex keeps
// Record and Range safe to call from another one mid-scan.
type frameEvent struct {
	mu    sync.Mutex
	start int
	end   int
}

func newFrameEvent() frameEvent {
	return frameEvent{start: frameUnset, end: frameUnset}
}

func (e *frameEvent) StartEvent(frame int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.start = frame
	e.end = frameUnset
}

func (e *frameEvent) EndEvent(frame int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.end = frame
	if e.start == frameUnset || e.start > e.end {
		e.start = e.end
	}
}

func (e *frameEvent) Range() (start, end int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start, e.end
}
