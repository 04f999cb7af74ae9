package ports

import "context"

// FailureAlert describes a terminally failed prediction job.
type FailureAlert struct {
	RequestID string
	ImageRef  string
	WorkerID  string
	Error     string
	FailedAt  string
}

// NotifierPort sends operational alerts. Implementations: Discord webhook and
// a noop for deployments without alerting.
type NotifierPort interface {
	SendJobFailedAlert(ctx context.Context, alert *FailureAlert) error
	IsEnabled() bool
}

// NoopNotifier is the capability-absent notifier.
type NoopNotifier struct{}

func (NoopNotifier) SendJobFailedAlert(context.Context, *FailureAlert) error { return nil }
func (NoopNotifier) IsEnabled() bool                                         { return false }
