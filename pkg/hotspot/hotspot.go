// Package hotspot describes mapped dengue hotspots and how they are filtered.
package hotspot

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/denguesense/pkg/risk"
)

// FilterAll keeps every hotspot.
const FilterAll = "all"

// Hotspot is a mapped area with reported cases.
type Hotspot struct {
	ID           string     `json:"id" toml:"id"`
	Name         string     `json:"name" toml:"name"`
	Lat          float64    `json:"lat" toml:"lat"`
	Lng          float64    `json:"lng" toml:"lng"`
	Risk         risk.Level `json:"risk" toml:"risk"`
	Cases        int        `json:"cases" toml:"cases"`
	LastReported string     `json:"last_reported" toml:"last_reported"`
}

// Source lists hotspots.
type Source interface {
	Hotspots(ctx context.Context) ([]Hotspot, error)
}

// ParseFilter validates a filter value. Empty means FilterAll.
func ParseFilter(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == FilterAll {
		return FilterAll, nil
	}

	level, err := risk.ParseLevel(s)
	if err != nil {
		return "", fmt.Errorf("invalid hotspot filter: %w", err)
	}
	return string(level), nil
}

// Filter returns the hotspots matching filter in their original order.
func Filter(hotspots []Hotspot, filter string) []Hotspot {
	if filter == "" || filter == FilterAll {
		return hotspots
	}

	out := make([]Hotspot, 0, len(hotspots))
	for _, h := range hotspots {
		if string(h.Risk) == filter {
			out = append(out, h)
		}
	}
	return out
}

// TotalCases sums the cases across hotspots.
func TotalCases(hotspots []Hotspot) int {
	total := 0
	for _, h := range hotspots {
		total += h.Cases
	}
	return total
}
