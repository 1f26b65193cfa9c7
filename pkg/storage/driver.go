// Package storage defines the persistent community report store.
package storage

import (
	"context"

	"github.com/papercomputeco/denguesense/pkg/report"
)

// Driver persists community reports.
type Driver interface {
	report.Store

	// Get retrieves a report by its ID.
	Get(ctx context.Context, id string) (*report.Report, error)

	// SetStatus moves a report to status and returns the updated report.
	SetStatus(ctx context.Context, id string, status report.Status) (*report.Report, error)

	// Close closes the store and releases any resources.
	Close() error
}
