package eventstream

import "context"

// Publisher publishes report events to an event stream backend.
type Publisher interface {
	PublishReport(ctx context.Context, event *ReportSubmittedEvent) error
	Close() error
}
