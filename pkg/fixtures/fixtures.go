// Package fixtures serves hotspots, reports, analytics and impact figures
// from an in-memory data set. The set can be loaded from a TOML file and
// reloaded when that file changes.
package fixtures

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

// Data is the fixture file layout.
type Data struct {
	Hotspots  []hotspot.Hotspot   `toml:"hotspots"`
	Reports   []report.Report     `toml:"reports"`
	Analytics analytics.Dashboard `toml:"analytics"`
	Impact    risk.ImpactStats    `toml:"impact"`
}

// Set is a concurrency safe fixture data set. Reports submitted at runtime
// are kept across Replace calls.
type Set struct {
	mu        sync.RWMutex
	data      Data
	submitted []report.Report
	now       func() time.Time
}

// NewSet returns a set serving data.
func NewSet(data Data) *Set {
	return &Set{data: data, now: time.Now}
}

// Default returns the built-in demo data with report times relative to now.
func Default() *Set {
	return NewSet(DefaultData(time.Now()))
}

// Load reads a fixture file into a new set.
func Load(path string) (*Set, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSet(*data), nil
}

// LoadFile decodes a TOML fixture file.
func LoadFile(path string) (*Data, error) {
	data := &Data{}
	if _, err := toml.DecodeFile(path, data); err != nil {
		return nil, fmt.Errorf("decoding fixtures %s: %w", path, err)
	}
	return data, nil
}

// Replace swaps the fixture data.
func (s *Set) Replace(data Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Hotspots implements hotspot.Source.
func (s *Set) Hotspots(_ context.Context) ([]hotspot.Hotspot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Hotspots), nil
}

// List implements report.Store.
func (s *Set) List(_ context.Context) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]report.Report, 0, len(s.submitted)+len(s.data.Reports))
	for i := len(s.submitted) - 1; i >= 0; i-- {
		out = append(out, s.submitted[i])
	}
	return append(out, s.data.Reports...), nil
}

// Submit implements report.Store.
func (s *Set) Submit(_ context.Context, sub report.Submission) (*report.Report, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	r := report.New(sub, s.now())

	s.mu.Lock()
	s.submitted = append(s.submitted, r)
	s.mu.Unlock()

	return &r, nil
}

// Dashboard implements analytics.Source.
func (s *Set) Dashboard(_ context.Context) (*analytics.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.data.Analytics
	d.Overview = slices.Clone(d.Overview)
	d.Weekly = slices.Clone(d.Weekly)
	d.Monthly = slices.Clone(d.Monthly)
	d.RiskDistribution = slices.Clone(d.RiskDistribution)
	d.Areas = slices.Clone(d.Areas)
	return &d, nil
}

// Impact returns the user impact figures.
func (s *Set) Impact(_ context.Context) (risk.ImpactStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Impact, nil
}
