package llm

// StreamChunk is a single "data:" payload of a streamed chat completion.
// Only the fields the assistant reads are modeled; everything else in the
// upstream payload is ignored by encoding/json.
type StreamChunk struct {
	ID      string         `json:"id,omitempty"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice is one entry of the "choices" array.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason,omitempty"`
}

// StreamDelta carries the incremental text of a choice.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Fragment returns choices[0].delta.content and whether it is non-empty.
func (c *StreamChunk) Fragment() (string, bool) {
	if c == nil || len(c.Choices) == 0 {
		return "", false
	}

	content := c.Choices[0].Delta.Content
	return content, content != ""
}
