package entity

type EventType string

const (
	EventTypeQR       EventType = "qr"
	EventTypeActivity EventType = "activity"
)

// EventRecord is the finalized, immutable form of a detected frame-range
// event. Detector internals are mutable while a video is being scanned;
// once finalized the record is passed around by value.
type EventRecord struct {
	Type       EventType         `json:"type"`
	StartFrame int               `json:"start_frame"`
	EndFrame   int               `json:"end_frame"`
	ActivityID int               `json:"activity_id,omitempty"`
	Detected   bool              `json:"detected,omitempty"`
	Geo        map[string]string `json:"geo,omitempty"`
}

// VideoRecord is the document emitted for one processed video.
type VideoRecord struct {
	Video      string        `json:"video"`
	FrameCount int           `json:"frame_count"`
	FPS        float64       `json:"fps"`
	Events     []EventRecord `json:"events"`
}
