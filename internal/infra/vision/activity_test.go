package vision

import (
	"testing"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestActivityEventExtendsWhileActive(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	activeUntil := 7
	ev := NewActivityEvent(1, 5, 5, func(_ gocv.Mat, n int) bool {
		return n <= activeUntil
	})
	ev.StartEvent(5)

	for n := 5; n <= 7; n++ {
		ev.CheckFrame(frame, n)
		assert.True(t, ev.IsActive())
	}
	_, end := ev.Range()
	assert.Equal(t, 7, end)

	// Inactive frames do not extend the interval.
	ev.CheckFrame(frame, 8)
	assert.False(t, ev.IsActive())
	_, end = ev.Range()
	assert.Equal(t, 7, end)
}

func TestActivityEventEndFinalizes(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	ev := NewActivityEvent(2, 10, 10, func(gocv.Mat, int) bool { return true })
	ev.StartEvent(10)
	ev.CheckFrame(frame, 11)
	ev.EndEvent(12)

	assert.False(t, ev.IsActive())
	rec := ev.Record()
	assert.Equal(t, entity.EventTypeActivity, rec.Type)
	assert.Equal(t, 2, rec.ActivityID)
	assert.Equal(t, 10, rec.StartFrame)
	assert.Equal(t, 12, rec.EndFrame)
}

func TestActivityEventRangeInvariantAfterEnd(t *testing.T) {
	// A start guess past the actual end clamps to a valid range.
	ev := NewActivityEvent(3, 9, 9, nil)
	ev.EndEvent(4)
	start, end := ev.Range()
	assert.LessOrEqual(t, start, end)
	assert.Equal(t, 4, end)
}

func TestActivityEventIDs(t *testing.T) {
	a := NewActivityEvent(1, 0, 0, nil)
	b := NewActivityEvent(2, 0, 0, nil)
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 2, b.ID())
}
