package port

import (
	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"gocv.io/x/gocv"
)

// FrameEvent is the shared lifecycle of a frame-range event. A detector
// starts tracking a candidate occurrence, is fed every decoded frame in
// order, and is ended when the occurrence (or the video) runs out.
// Frame numbers are monotonically increasing within one video; the frame
// buffer handed to CheckFrame is read-only from the event's perspective.
type FrameEvent interface {
	// StartEvent resets tracking state for a fresh occurrence beginning
	// at the given frame.
	StartEvent(frame int)

	// CheckFrame examines one frame for detector-specific evidence.
	CheckFrame(frame gocv.Mat, frameNumber int)

	// EndEvent records the final frame and finalizes internal state.
	EndEvent(frame int)

	// Record returns an immutable snapshot of the event. Before EndEvent
	// the content is unspecified but calling it is safe.
	Record() entity.EventRecord

	// Range returns the start and end frame of the event.
	Range() (start, end int)
}
