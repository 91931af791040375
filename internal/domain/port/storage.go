package port

import (
	"context"
	"io"
)

type RecordStorage interface {
	UploadRecord(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
