package port

import (
	"context"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
)

// PairProcessor consumes one work item. On success the scheduler deletes
// both input videos; on error it leaves them in place for a later cycle.
type PairProcessor interface {
	ProcessPair(ctx context.Context, videoA, videoB string) (*entity.PairResult, error)
}
