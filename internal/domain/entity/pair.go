package entity

import "github.com/google/uuid"

// VideoPair is one work item: two raw videos selected for a single
// stereo processing pass. Pairs are recomputed every batch cycle from
// the current directory contents and are never persisted.
type VideoPair struct {
	ID     uuid.UUID
	VideoA string
	VideoB string
}

func NewVideoPair(videoA, videoB string) VideoPair {
	return VideoPair{
		ID:     uuid.New(),
		VideoA: videoA,
		VideoB: videoB,
	}
}

// PairResult is what the per-pair processor reports back on success.
type PairResult struct {
	RecordPaths []string
	FramesRead  int
	EventCount  int
	QRDetected  bool
}
