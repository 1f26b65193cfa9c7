package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DoneSentinel is the data payload that terminates a chat completion stream.
	DoneSentinel = "[DONE]"

	dataPrefix    = "data: "
	commentPrefix = ":"

	defaultMaxBufferBytes = 1024 * 1024
	defaultMaxRollbacks   = 8
)

var (
	// ErrMalformedEvent is returned when a complete "data:" line never parses
	// as JSON, either because it was rolled back more than the allowed number
	// of times or because the stream ended while it was still pending.
	ErrMalformedEvent = errors.New("malformed stream event")

	// ErrBufferOverflow is returned when the unconsumed text buffer grows past
	// the configured limit.
	ErrBufferOverflow = errors.New("stream buffer overflow")
)

// ChunkParser incrementally parses a chat completion SSE stream that arrives
// in arbitrarily sized chunks. Chunk boundaries may split lines, JSON payloads
// and multi-byte UTF-8 sequences; none of those splits change the output.
//
// A ChunkParser is owned by a single stream and is not safe for concurrent use.
type ChunkParser struct {
	decoder transform.Transformer

	// pending holds trailing bytes that do not yet form a complete rune.
	pending []byte

	// buf holds decoded text that has not been consumed as a line yet.
	buf []byte

	// rollbacks counts consecutive feeds in which the head line of buf failed
	// to parse and was pushed back.
	rollbacks  int
	rolledBack bool
	done       bool

	maxBufferBytes int
	maxRollbacks   int
}

// ChunkParserOption configures a ChunkParser.
type ChunkParserOption func(*ChunkParser)

// WithMaxBufferBytes bounds the unconsumed text buffer. Values <= 0 keep the
// default of 1 MiB.
func WithMaxBufferBytes(n int) ChunkParserOption {
	return func(p *ChunkParser) {
		if n > 0 {
			p.maxBufferBytes = n
		}
	}
}

// WithMaxRollbacks bounds how many consecutive chunks a rolled back line may
// wait for before the parser gives up on it. Values <= 0 keep the default of 8.
func WithMaxRollbacks(n int) ChunkParserOption {
	return func(p *ChunkParser) {
		if n > 0 {
			p.maxRollbacks = n
		}
	}
}

// NewChunkParser returns a parser with an empty buffer.
func NewChunkParser(opts ...ChunkParserOption) *ChunkParser {
	p := &ChunkParser{
		decoder:        unicode.UTF8.NewDecoder(),
		maxBufferBytes: defaultMaxBufferBytes,
		maxRollbacks:   defaultMaxRollbacks,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Feed decodes chunk, appends it to the buffer and extracts every complete
// line. It returns the text fragments found, in stream order, and whether the
// [DONE] sentinel was observed. Fragments parsed before an error are still
// returned alongside it.
//
// Once done is reported, further calls are no-ops.
func (p *ChunkParser) Feed(chunk []byte) ([]string, bool, error) {
	if p.done {
		return nil, true, nil
	}

	text, err := p.decode(chunk, false)
	if err != nil {
		return nil, false, err
	}
	p.buf = append(p.buf, text...)

	fragments, err := p.drain()
	if err != nil {
		return fragments, p.done, err
	}

	if len(p.buf) > p.maxBufferBytes {
		return fragments, p.done, fmt.Errorf("%w: %d bytes buffered (limit %d)", ErrBufferOverflow, len(p.buf), p.maxBufferBytes)
	}

	return fragments, p.done, nil
}

// Flush is called once the source is exhausted. Incomplete trailing text is
// discarded; a line that was rolled back and never parsed is reported as
// ErrMalformedEvent.
func (p *ChunkParser) Flush() error {
	if p.done {
		return nil
	}

	// Surface any held-back bytes so they are accounted for, then drop them
	// with the rest of the unterminated tail.
	tail, err := p.decode(nil, true)
	if err != nil {
		return err
	}
	p.buf = append(p.buf, tail...)

	pendingLine := p.rolledBack
	p.buf = nil
	p.done = true

	if pendingLine {
		return fmt.Errorf("%w: stream ended with an unparsed line", ErrMalformedEvent)
	}
	return nil
}

// drain extracts and processes lines while a newline exists in the buffer.
func (p *ChunkParser) drain() ([]string, error) {
	var fragments []string

	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			return fragments, nil
		}

		line := string(p.buf[:idx])
		rest := p.buf[idx+1:]

		fragment, outcome := parseLine(line)
		switch outcome {
		case lineDone:
			p.buf = rest
			p.done = true
			p.rolledBack = false
			return fragments, nil

		case lineRetry:
			// The line stays at the head of the buffer (together with its
			// newline) until more bytes arrive.
			p.rollbacks++
			p.rolledBack = true
			if p.rollbacks > p.maxRollbacks {
				return fragments, fmt.Errorf("%w: line rolled back %d times: %q", ErrMalformedEvent, p.rollbacks, truncate(line, 120))
			}
			return fragments, nil

		case lineFragment:
			fragments = append(fragments, fragment)
		}

		p.buf = rest
		p.rollbacks = 0
		p.rolledBack = false
	}
}

// decode runs src through the streaming UTF-8 decoder. Incomplete trailing
// sequences are held back until the next call unless atEOF is set, in which
// case they decode to U+FFFD.
func (p *ChunkParser) decode(src []byte, atEOF bool) ([]byte, error) {
	if len(p.pending) > 0 {
		src = append(p.pending, src...)
		p.pending = nil
	}
	if len(src) == 0 {
		return nil, nil
	}

	// Each invalid byte expands to at most a 3 byte replacement rune.
	dst := make([]byte, len(src)*3+utf8.UTFMax)
	nDst, nSrc, err := p.decoder.Transform(dst, src, atEOF)
	switch {
	case errors.Is(err, transform.ErrShortSrc):
		p.pending = append([]byte(nil), src[nSrc:]...)
	case err != nil:
		return nil, fmt.Errorf("decoding stream: %w", err)
	}

	return dst[:nDst], nil
}

type lineOutcome int

const (
	lineIgnored lineOutcome = iota
	lineFragment
	lineDone
	lineRetry
)

// parseLine classifies a single extracted line.
func parseLine(line string) (string, lineOutcome) {
	line = strings.TrimSuffix(line, "\r")

	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
		return "", lineIgnored
	}

	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return "", lineIgnored
	}

	payload = strings.TrimSpace(payload)
	if payload == DoneSentinel {
		return "", lineDone
	}

	if !json.Valid([]byte(payload)) {
		return "", lineRetry
	}

	fragment, ok := deltaContent([]byte(payload))
	if !ok {
		return "", lineIgnored
	}

	return fragment, lineFragment
}

// deltaContent walks valid JSON down to choices[0].delta.content. Only that
// path is decoded, so the shape of every other field is irrelevant. Missing
// or non-string content, or an empty string, yields no fragment.
func deltaContent(payload []byte) (string, bool) {
	var chunk struct {
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false
	}

	var choices []json.RawMessage
	if err := json.Unmarshal(chunk.Choices, &choices); err != nil || len(choices) == 0 {
		return "", false
	}

	var choice struct {
		Delta json.RawMessage `json:"delta"`
	}
	if err := json.Unmarshal(choices[0], &choice); err != nil {
		return "", false
	}

	var delta struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(choice.Delta, &delta); err != nil {
		return "", false
	}

	var content string
	if err := json.Unmarshal(delta.Content, &content); err != nil {
		return "", false
	}
	return content, content != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
