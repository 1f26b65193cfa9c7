// Package sse provides the Server-Sent Events readers used by DengueSense.
//
// Two readers live here:
//   - ChunkParser, an incremental parser that turns arbitrarily split chunks of
//     a chat completion stream into text fragments for the health assistant.
//   - TeeReader, an event reader that forwards raw bytes verbatim to a
//     downstream writer while yielding parsed events, used by the API relay.
//
// This package does NOT provide SSE writer or server capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// IsDone reports whether the event carries the [DONE] sentinel.
func (e *Event) IsDone() bool {
	return e != nil && strings.TrimSpace(e.Data) == DoneSentinel
}
