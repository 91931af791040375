package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, to string, pairID string, videos string, errorMsg string) error
}
