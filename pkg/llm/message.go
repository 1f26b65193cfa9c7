// Package llm holds the chat wire types exchanged with the health assistant
// backend.
package llm

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // plain text, grows while an assistant reply streams
}

// NewTextMessage creates a message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: text,
	}
}

// ChatRequest is the body POSTed to the assistant endpoint.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ErrorResponse is the JSON error body returned by the API server.
type ErrorResponse struct {
	Error string `json:"error"`
}
