// Package assistant implements the streaming health-assistant chat session.
//
// A Session owns the conversation history. Each Send posts the history to the
// configured chat endpoint and streams the SSE reply into a trailing assistant
// message, publishing the history to subscribers after every fragment.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/notify"
	"github.com/papercomputeco/denguesense/pkg/sse"
)

const (
	DefaultGreeting = "Hello! I'm your DengueSense Health Assistant. I can help you with:\n\n" +
		"• Dengue symptoms & prevention\n" +
		"• Identifying breeding sites\n" +
		"• When to seek medical help\n" +
		"• Community health tips\n\n" +
		"How can I help you today?"

	failureTitle       = "Error"
	failureDescription = "Failed to get response. Please try again."

	defaultTimeout = 5 * time.Minute
)

// SuggestedQuestions are the starter prompts offered before the first send.
var SuggestedQuestions = []string{
	"What are dengue symptoms?",
	"How to prevent mosquito breeding?",
	"When should I see a doctor?",
	"डेंगू के लक्षण क्या हैं?",
}

var (
	// ErrBusy is returned by Send while another send is streaming.
	ErrBusy = errors.New("assistant is busy")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// StatusError is returned when the chat endpoint answers with a non-2xx
// status before streaming starts.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Config is the assistant session configuration.
type Config struct {
	// Endpoint is the chat completion URL the history is POSTed to.
	Endpoint string

	// APIKey is sent as a bearer token. Empty disables the header.
	APIKey string

	// HTTPClient defaults to a client with a five minute timeout.
	HTTPClient *http.Client

	// Notifier receives the failure toast. Nil disables toasts.
	Notifier notify.Notifier

	Logger *zap.Logger

	// Greeting is the first assistant message. Empty uses DefaultGreeting.
	Greeting string

	// History resumes an earlier conversation. It follows the greeting.
	History []llm.Message

	ParserOptions []sse.ChunkParserOption
}

// Session is a single chat conversation. It is safe for concurrent use, but
// only one Send streams at a time.
type Session struct {
	config Config
	client *http.Client
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	messages  []llm.Message
	busy      bool
	nextSubID uint64
	listeners map[uint64]func([]llm.Message)
}

// NewSession returns a session holding the greeting and any resumed history.
func NewSession(config Config) *Session {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	greeting := config.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}

	messages := make([]llm.Message, 0, len(config.History)+1)
	messages = append(messages, llm.NewTextMessage(llm.RoleAssistant, greeting))
	messages = append(messages, config.History...)

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		config:    config,
		client:    client,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
		messages:  messages,
		listeners: make(map[uint64]func([]llm.Message)),
	}
}

// Messages returns a copy of the conversation, greeting included.
func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// History returns the conversation without the greeting, as it is sent to
// the chat endpoint.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages[1:])
}

// Busy reports whether a Send is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Subscribe registers fn to receive the conversation after every change and
// returns a function that unregisters it.
func (s *Session) Subscribe(fn func([]llm.Message)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close cancels any in-flight Send. The session cannot send afterwards.
func (s *Session) Close() {
	s.cancel()
}

// Send appends text as a user message, posts the conversation and streams the
// reply into a new assistant message. Fragments already received are kept
// when the stream fails; the failure is returned and a toast is raised.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.messages = append(s.messages, llm.NewTextMessage(llm.RoleUser, text))
	history := slices.Clone(s.messages[1:])
	s.mu.Unlock()
	s.publish()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
		s.publish()
	}()

	ctx, cancel := mergeCancel(ctx, s.ctx)
	defer cancel()

	err := s.exchange(ctx, history)
	if err != nil {
		s.logger.Error("chat request failed", zap.Error(err))
		s.dropEmptyReply()
		s.notifyFailure()
		return err
	}

	return nil
}

func (s *Session) exchange(ctx context.Context, history []llm.Message) error {
	body, err := json.Marshal(llm.ChatRequest{Messages: history})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	s.logger.Debug("sending chat request",
		zap.String("endpoint", s.config.Endpoint),
		zap.Int("message_count", len(history)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	s.mu.Lock()
	s.messages = append(s.messages, llm.NewTextMessage(llm.RoleAssistant, ""))
	s.mu.Unlock()
	s.publish()

	return sse.Stream(ctx, resp.Body, s.appendFragment, s.config.ParserOptions...)
}

func (s *Session) appendFragment(fragment string) {
	s.mu.Lock()
	last := len(s.messages) - 1
	s.messages[last].Content += fragment
	s.mu.Unlock()
	s.publish()
}

// dropEmptyReply removes the trailing assistant message if nothing was
// streamed into it.
func (s *Session) dropEmptyReply() {
	s.mu.Lock()
	last := len(s.messages) - 1
	if last <= 0 || s.messages[last].Role != llm.RoleAssistant || s.messages[last].Content != "" {
		s.mu.Unlock()
		return
	}
	s.messages = s.messages[:last]
	s.mu.Unlock()
	s.publish()
}

func (s *Session) notifyFailure() {
	if s.config.Notifier == nil {
		return
	}
	s.config.Notifier.Toast(notify.Toast{
		Title:       failureTitle,
		Description: failureDescription,
		Variant:     notify.VariantDestructive,
	})
}

func (s *Session) publish() {
	s.mu.Lock()
	snapshot := slices.Clone(s.messages)
	listeners := make([]func([]llm.Message), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(slices.Clone(snapshot))
	}
}

// mergeCancel returns a context derived from ctx that is also cancelled when
// other is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
