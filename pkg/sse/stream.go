package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const defaultReadSize = 32 * 1024

// Stream reads src one chunk per Read call, feeds every chunk through a new
// ChunkParser and calls onFragment for each fragment as soon as its chunk has
// been processed. It returns nil when the source is exhausted or the [DONE]
// sentinel is observed.
//
// Read errors, parser errors and context cancellation abort the stream;
// fragments delivered before the failure stand.
func Stream(ctx context.Context, src io.Reader, onFragment func(string), opts ...ChunkParserOption) error {
	parser := NewChunkParser(opts...)
	chunk := make([]byte, defaultReadSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := src.Read(chunk)
		if n > 0 {
			fragments, done, err := parser.Feed(chunk[:n])
			for _, fragment := range fragments {
				onFragment(fragment)
			}
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}

		if errors.Is(readErr, io.EOF) {
			return parser.Flush()
		}
		if readErr != nil {
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}
}
