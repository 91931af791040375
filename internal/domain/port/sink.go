package port

import "github.com/finwatch/finwatch-processing-service/internal/domain/entity"

// RecordSink persists the document emitted for one processed video and
// returns the path it was written to.
type RecordSink interface {
	Write(videoPath string, doc entity.VideoRecord) (string, error)
}
