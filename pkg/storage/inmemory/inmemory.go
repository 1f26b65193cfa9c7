// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the reports and their order
	mu sync.RWMutex

	// reports maps report ID to report
	reports map[string]*report.Report

	// order holds report IDs, oldest submission first
	order []string

	now func() time.Time
}

// NewDriver creates a new in-memory store seeded with reports. Seed reports
// are listed in the order given, after anything submitted later.
func NewDriver(seed ...report.Report) *Driver {
	d := &Driver{
		reports: make(map[string]*report.Report, len(seed)),
		now:     time.Now,
	}

	for i := len(seed) - 1; i >= 0; i-- {
		r := seed[i]
		d.reports[r.ID] = &r
		d.order = append(d.order, r.ID)
	}

	return d
}

// Submit validates and stores a new pending report.
func (d *Driver) Submit(_ context.Context, sub report.Submission) (*report.Report, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	r := report.New(sub, d.now())

	d.mu.Lock()
	defer d.mu.Unlock()

	d.reports[r.ID] = &r
	d.order = append(d.order, r.ID)

	out := r
	return &out, nil
}

// List returns all reports, newest submission first.
func (d *Driver) List(_ context.Context) ([]report.Report, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]report.Report, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		out = append(out, *d.reports[d.order[i]])
	}
	return out, nil
}

// Get retrieves a report by its ID.
func (d *Driver) Get(_ context.Context, id string) (*report.Report, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.reports[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	out := *r
	return &out, nil
}

// SetStatus updates a report's status.
func (d *Driver) SetStatus(_ context.Context, id string, status report.Status) (*report.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.reports[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	r.Status = status
	out := *r
	return &out, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}
