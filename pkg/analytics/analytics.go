// Package analytics holds the community dashboard figures.
package analytics

import "context"

// Trend is the direction an area's cases are moving.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Stat is a headline figure with its change against last week.
type Stat struct {
	Label string `json:"label" toml:"label"`
	Value string `json:"value" toml:"value"`
	// Change is the week over week change in percent.
	Change int `json:"change" toml:"change"`
}

type DayPoint struct {
	Day   string `json:"day" toml:"day"`
	Cases int    `json:"cases" toml:"cases"`
	Sites int    `json:"sites" toml:"sites"`
}

type MonthPoint struct {
	Month string `json:"month" toml:"month"`
	Cases int    `json:"cases" toml:"cases"`
}

// Slice is one share of the risk distribution, in percent.
type Slice struct {
	Name  string `json:"name" toml:"name"`
	Value int    `json:"value" toml:"value"`
}

type Area struct {
	Area  string `json:"area" toml:"area"`
	Cases int    `json:"cases" toml:"cases"`
	Trend Trend  `json:"trend" toml:"trend"`
}

// Dashboard is everything the analytics view renders.
type Dashboard struct {
	Overview         []Stat       `json:"overview" toml:"overview"`
	Weekly           []DayPoint   `json:"weekly" toml:"weekly"`
	Monthly          []MonthPoint `json:"monthly" toml:"monthly"`
	RiskDistribution []Slice      `json:"risk_distribution" toml:"risk_distribution"`
	Areas            []Area       `json:"areas" toml:"areas"`
}

// Source provides the dashboard.
type Source interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

// WeeklyTotals sums cases and sites across the week.
func (d *Dashboard) WeeklyTotals() (cases, sites int) {
	for _, p := range d.Weekly {
		cases += p.Cases
		sites += p.Sites
	}
	return cases, sites
}

// PeakMonth returns the month with the most cases.
func (d *Dashboard) PeakMonth() (MonthPoint, bool) {
	if len(d.Monthly) == 0 {
		return MonthPoint{}, false
	}
	peak := d.Monthly[0]
	for _, m := range d.Monthly[1:] {
		if m.Cases > peak.Cases {
			peak = m
		}
	}
	return peak, true
}
