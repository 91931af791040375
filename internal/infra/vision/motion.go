package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// motionGate turns raw frame-to-frame difference into a debounced
// activity signal. A frame is "moving" when the fraction of pixels whose
// blurred grayscale difference exceeds pixelDiff is at least areaRatio;
// the gate only drops back to inactive after cooldown quiet frames, so
// brief pauses inside one activity interval do not split it.
type motionGate struct {
	pixelDiff float32
	areaRatio float64
	cooldown  int

	prev   gocv.Mat
	quiet  int
	active bool
}

func newMotionGate(pixelDiff, areaRatio float64, cooldown int) *motionGate {
	return &motionGate{
		pixelDiff: float32(pixelDiff),
		areaRatio: areaRatio,
		cooldown:  cooldown,
		prev:      gocv.NewMat(),
	}
}

func (m *motionGate) observe(frame gocv.Mat) bool {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &gray, image.Pt(21, 21), 0, 0, gocv.BorderDefault)

	if m.prev.Empty() {
		gray.CopyTo(&m.prev)
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(m.prev, gray, &diff)
	gocv.Threshold(diff, &diff, m.pixelDiff, 255, gocv.ThresholdBinary)
	moved := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols())
	gray.CopyTo(&m.prev)

	if moved >= m.areaRatio {
		m.active = true
		m.quiet = 0
		return m.active
	}
	if m.active {
		m.quiet++
		if m.quiet >= m.cooldown {
			m.active = false
		}
	}
	return m.active
}

func (m *motionGate) Close() {
	m.prev.Close()
}
