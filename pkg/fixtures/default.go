package fixtures

import (
	"time"

	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

// DefaultData returns the demo tables.
func DefaultData(now time.Time) Data {
	return Data{
		Hotspots: []hotspot.Hotspot{
			{ID: "1", Name: "Sector 21 - Construction Site", Lat: 23.0225, Lng: 72.5714, Risk: risk.LevelHigh, Cases: 12, LastReported: "2 hours ago"},
			{ID: "2", Name: "Old City Market", Lat: 23.0300, Lng: 72.5800, Risk: risk.LevelHigh, Cases: 8, LastReported: "5 hours ago"},
			{ID: "3", Name: "Industrial Zone - Factory Area", Lat: 23.0150, Lng: 72.5600, Risk: risk.LevelMedium, Cases: 5, LastReported: "1 day ago"},
			{ID: "4", Name: "Green Park - Near Lake", Lat: 23.0400, Lng: 72.5500, Risk: risk.LevelMedium, Cases: 3, LastReported: "2 days ago"},
			{ID: "5", Name: "Residential Block C", Lat: 23.0100, Lng: 72.5900, Risk: risk.LevelLow, Cases: 1, LastReported: "3 days ago"},
		},
		Reports: []report.Report{
			{
				ID:          "1",
				Type:        report.TypeBreedingSite,
				Location:    "Sector 21, Near Park",
				Description: "Stagnant water in construction site",
				Status:      report.StatusVerified,
				Timestamp:   now.Add(-24 * time.Hour),
			},
			{
				ID:          "2",
				Type:        report.TypeSuspectedCase,
				Location:    "Block B, Apartment 405",
				Description: "Neighbor showing dengue symptoms",
				Status:      report.StatusPending,
				Timestamp:   now.Add(-1 * time.Hour),
			},
			{
				ID:          "3",
				Type:        report.TypeCleanupDone,
				Location:    "Community Garden",
				Description: "Cleared all water containers",
				Status:      report.StatusResolved,
				Timestamp:   now.Add(-2 * time.Hour),
			},
		},
		Analytics: analytics.Dashboard{
			Overview: []analytics.Stat{
				{Label: "Active Cases", Value: "47", Change: -12},
				{Label: "Sites Identified", Value: "156", Change: 8},
				{Label: "Sites Cleared", Value: "89", Change: 23},
				{Label: "Active Users", Value: "1.2K", Change: 45},
			},
			Weekly: []analytics.DayPoint{
				{Day: "Mon", Cases: 12, Sites: 8},
				{Day: "Tue", Cases: 19, Sites: 12},
				{Day: "Wed", Cases: 15, Sites: 10},
				{Day: "Thu", Cases: 8, Sites: 15},
				{Day: "Fri", Cases: 10, Sites: 18},
				{Day: "Sat", Cases: 6, Sites: 22},
				{Day: "Sun", Cases: 4, Sites: 25},
			},
			Monthly: []analytics.MonthPoint{
				{Month: "Jan", Cases: 120},
				{Month: "Feb", Cases: 98},
				{Month: "Mar", Cases: 145},
				{Month: "Apr", Cases: 210},
				{Month: "May", Cases: 180},
				{Month: "Jun", Cases: 95},
			},
			RiskDistribution: []analytics.Slice{
				{Name: "High Risk", Value: 15},
				{Name: "Medium Risk", Value: 35},
				{Name: "Low Risk", Value: 50},
			},
			Areas: []analytics.Area{
				{Area: "Sector 21", Cases: 23, Trend: analytics.TrendUp},
				{Area: "Old City", Cases: 18, Trend: analytics.TrendDown},
				{Area: "Industrial Zone", Cases: 15, Trend: analytics.TrendUp},
				{Area: "Green Park", Cases: 8, Trend: analytics.TrendDown},
			},
		},
		Impact: risk.ImpactStats{
			SitesFound:               5,
			CommunitySitesEliminated: 47,
			LivesSaved:               15,
			UserRank:                 12,
			WeeklyGoal:               10,
			WeeklyProgress:           5,
		},
	}
}
