package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	defaultInitialLineSize = 64 * 1024
	defaultMaxLineSize     = 1024 * 1024
)

// TeeReader reads SSE events from a source io.Reader while writing every raw
// line verbatim to a destination io.Writer. The API relay uses it to stream
// the assistant backend's response straight to the browser while still
// seeing each event.
//
//	assistant backend ──▶ TeeReader.Next() ──▶ downstream client
//	                           │
//	                           ▼
//	                         Event
type TeeReader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	// forwarded counts bytes written to dest.
	forwarded int64

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// TeeReaderOption configures a TeeReader.
type TeeReaderOption func(*bufio.Scanner)

// WithMaxLineSize sets the longest single line the reader accepts.
func WithMaxLineSize(n int) TeeReaderOption {
	return func(s *bufio.Scanner) {
		initial := min(defaultInitialLineSize, n)
		s.Buffer(make([]byte, initial), n)
	}
}

// NewTeeReader returns a TeeReader parsing events from src and copying all
// raw bytes to dest.
func NewTeeReader(src io.Reader, dest io.Writer, opts ...TeeReaderOption) *TeeReader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, defaultInitialLineSize), defaultMaxLineSize)

	for _, opt := range opts {
		opt(scanner)
	}

	return &TeeReader{
		scanner: scanner,
		dest:    dest,
		current: &Event{},
	}
}

// Next blocks until a complete event (terminated by a blank line) is
// available and returns it. It returns nil, nil once src is exhausted.
func (r *TeeReader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		// The scanner strips the newline, put it back for the client.
		n, err := io.WriteString(r.dest, raw+"\n")
		r.forwarded += int64(n)
		if err != nil {
			return nil, fmt.Errorf("forwarding stream: %w", err)
		}

		if raw == "" {
			if r.hasData {
				return r.take(), nil
			}
			// keep-alive
			continue
		}

		if strings.HasPrefix(raw, commentPrefix) {
			continue
		}

		r.parseLine(strings.TrimSuffix(raw, "\r"))
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// A stream that ends without a trailing blank line still yields its
	// last event.
	if r.hasData {
		return r.take(), nil
	}

	return nil, nil
}

// Forwarded returns the number of bytes written to the destination so far.
func (r *TeeReader) Forwarded() int64 {
	return r.forwarded
}

// parseLine accumulates a "field:value" line into the current event. A
// single space after the colon is dropped.
func (r *TeeReader) parseLine(line string) {
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

func (r *TeeReader) take() *Event {
	ev := r.current
	r.current = &Event{}
	r.hasData = false
	return ev
}
