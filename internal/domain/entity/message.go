package entity

import (
	"time"

	"github.com/google/uuid"
)

type PairStatus string

const (
	PairStatusCompleted PairStatus = "COMPLETED"
	PairStatusFailed    PairStatus = "FAILED"
)

// PairStatusMessage is the outbound message published after each
// dispatched pair, successful or not.
type PairStatusMessage struct {
	PairID       uuid.UUID  `json:"pair_id"`
	VideoA       string     `json:"video_a"`
	VideoB       string     `json:"video_b"`
	Status       PairStatus `json:"status"`
	EventCount   int        `json:"event_count,omitempty"`
	RecordPaths  []string   `json:"record_paths,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  time.Time  `json:"processed_at"`
}
