package port

import (
	"context"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
)

// ResultArchiver stores the outcome of a dispatched pair for later
// analysis. It is observational only: batch scheduling never reads it
// back, the filesystem remains the sole cross-run coordination state.
type ResultArchiver interface {
	Archive(ctx context.Context, msg entity.PairStatusMessage) error
}
