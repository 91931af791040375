package vision

import (
	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"gocv.io/x/gocv"
)

// EvidenceFunc reports whether motion evidence is present on a frame.
type EvidenceFunc func(frame gocv.Mat, frameNumber int) bool

// ActivityEvent tracks one numbered interval of subject activity. The
// owning processing loop creates an instance when activity begins, feeds
// it every frame, and ends it when activity ceases; several instances
// with distinct ids may be produced per video.
type ActivityEvent struct {
	frameEvent
	id       int
	active   bool
	evidence EvidenceFunc
}

// NewActivityEvent builds an event with its unique id and an initial
// (start, end) guess; the end is revised as frames are checked.
func NewActivityEvent(id, start, end int, evidence EvidenceFunc) *ActivityEvent {
	ev := &ActivityEvent{id: id, evidence: evidence, frameEvent: newFrameEvent()}
	ev.start = start
	ev.end = end
	return ev
}

func (a *ActivityEvent) ID() int {
	return a.id
}

func (a *ActivityEvent) CheckFrame(frame gocv.Mat, frameNumber int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.evidence != nil {
		a.active = a.evidence(frame, frameNumber)
	}
	if a.active && frameNumber > a.end {
		a.end = frameNumber
	}
}

func (a *ActivityEvent) EndEvent(frame int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.end = frame
	if a.start == frameUnset || a.start > a.end {
		a.start = a.end
	}
	a.active = false
}

// IsActive reflects the most recent check, not a historical aggregate.
func (a *ActivityEvent) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *ActivityEvent) Record() entity.EventRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return entity.EventRecord{
		Type:       entity.EventTypeActivity,
		StartFrame: a.start,
		EndFrame:   a.end,
		ActivityID: a.id,
	}
}
