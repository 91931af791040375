package vision

import (
	"strings"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
	"gocv.io/x/gocv"
)

// DecodeFunc decodes a scannable marker out of a frame, returning the
// embedded payload or "" when no marker was readable.
type DecodeFunc func(frame gocv.Mat) string

// QREvent scans frames for the calibration marker encoded as a QR code.
// Detection is a monotonic latch: a single successful decode is enough,
// later marker-free frames never reset it. A malformed or occluded
// marker simply counts as "not detected this frame".
type QREvent struct {
	frameEvent
	detected bool
	geo      map[string]string
	decode   DecodeFunc
	detector *gocv.QRCodeDetector
}

func NewQREvent() *QREvent {
	return &QREvent{frameEvent: newFrameEvent()}
}

// NewQREventWithDecoder substitutes the decode step, used by tests.
func NewQREventWithDecoder(decode DecodeFunc) *QREvent {
	return &QREvent{frameEvent: newFrameEvent(), decode: decode}
}

func (q *QREvent) StartEvent(frame int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.start = frame
	q.end = frameUnset
	q.detected = false
	q.geo = nil
}

func (q *QREvent) CheckFrame(frame gocv.Mat, frameNumber int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.detected {
		// Latched; no need to keep decoding.
		return
	}
	payload := q.decodeFrame(frame)
	if payload == "" {
		return
	}
	q.detected = true
	q.geo = ParseGeoURI(payload)
}

func (q *QREvent) decodeFrame(frame gocv.Mat) string {
	if q.decode != nil {
		return q.decode(frame)
	}
	if q.detector == nil {
		d := gocv.NewQRCodeDetector()
		q.detector = &d
	}
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()
	return q.detector.DetectAndDecode(frame, &points, &straight)
}

// DetectedQR reports whether the marker decoded successfully on at least
// one checked frame.
func (q *QREvent) DetectedQR() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.detected
}

func (q *QREvent) Record() entity.EventRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	var geo map[string]string
	if q.geo != nil {
		geo = make(map[string]string, len(q.geo))
		for k, v := range q.geo {
			geo[k] = v
		}
	}
	return entity.EventRecord{
		Type:       entity.EventTypeQR,
		StartFrame: q.start,
		EndFrame:   q.end,
		Detected:   q.detected,
		Geo:        geo,
	}
}

// Close releases the underlying detector, if one was created.
func (q *QREvent) Close() {
	if q.detector != nil {
		q.detector.Close()
		q.detector = nil
	}
}

// ParseGeoURI extracts the key/value query fragments of a geo URI such
// as "geo:49.2,-123.1?site=dock&cam=left". Fragments without a key=value
// shape are discarded rather than failing the whole parse.
func ParseGeoURI(uri string) map[string]string {
	values := make(map[string]string)
	rest := strings.TrimPrefix(uri, "geo:")
	i := strings.Index(rest, "?")
	if i < 0 {
		return values
	}
	for _, frag := range strings.Split(rest[i+1:], "&") {
		key, value, ok := strings.Cut(frag, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}
	return values
}
