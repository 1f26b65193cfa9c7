// Package report defines community reports and the store they are submitted
// to.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is what a report describes.
type Type string

const (
	TypeBreedingSite  Type = "breeding_site"
	TypeSuspectedCase Type = "suspected_case"
	TypeCleanupDone   Type = "cleanup_done"
)

// Types lists the known report types.
var Types = []Type{TypeBreedingSite, TypeSuspectedCase, TypeCleanupDone}

// Status is where a report is in review.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusResolved Status = "resolved"
)

// ParseStatus accepts "pending", "verified" or "resolved".
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusVerified, StatusResolved:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidSubmission, s)
	}
}

// Report is a community submission.
type Report struct {
	ID          string    `json:"id" toml:"id"`
	Type        Type      `json:"type" toml:"type"`
	Location    string    `json:"location" toml:"location"`
	Description string    `json:"description" toml:"description"`
	Status      Status    `json:"status" toml:"status"`
	Timestamp   time.Time `json:"timestamp" toml:"timestamp"`
}

// Submission is the user input for a new report.
type Submission struct {
	Type        Type   `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ErrInvalidSubmission wraps every validation failure.
var ErrInvalidSubmission = errors.New("invalid report")

// Validate checks the type is known and location and description are set.
func (s Submission) Validate() error {
	known := false
	for _, t := range Types {
		if s.Type == t {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSubmission, s.Type)
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidSubmission)
	}
	return nil
}

// New builds a pending report from a validated submission.
func New(s Submission, now time.Time) Report {
	return Report{
		ID:          uuid.NewString(),
		Type:        s.Type,
		Location:    strings.TrimSpace(s.Location),
		Description: strings.TrimSpace(s.Description),
		Status:      StatusPending,
		Timestamp:   now.UTC(),
	}
}

// Store lists and accepts reports. List returns the most recently submitted
// reports first.
type Store interface {
	List(ctx context.Context) ([]Report, error)
	Submit(ctx context.Context, s Submission) (*Report, error)
}
