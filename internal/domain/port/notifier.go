package port

import "context"

type FailureNotice struct {
	UserEmail string
	JobID     string
	VideoKey  string
	Strategy  string
	Reason    string
}

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, notice FailureNotice) error
}
