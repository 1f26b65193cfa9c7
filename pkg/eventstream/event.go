package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/denguesense/pkg/report"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeReportSubmitted is emitted after a community report is stored.
	EventTypeReportSubmitted = "report.submitted"
)

// ReportSubmittedEvent is a transport-neutral event payload for a new report.
type ReportSubmittedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	Report        report.Report `json:"report"`
}

// EventSource identifies where the report came from.
type EventSource struct {
	// Service is the emitting component, e.g. "api".
	Service   string `json:"service"`
	RemoteIP  string `json:"remote_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewReportSubmittedEvent wraps r in a v1 event with a fresh ID.
func NewReportSubmittedEvent(r report.Report, source EventSource, now time.Time) *ReportSubmittedEvent {
	return &ReportSubmittedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeReportSubmitted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        source,
		Report:        r,
	}
}
