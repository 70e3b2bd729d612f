package session

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents one chat transcript
type Session struct {
	ID            string    `json:"id"`
	StartTime     time.Time `json:"start_time"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	SystemMessage string    `json:"system_message"`
	Messages      []Message `json:"messages"`

	persisted int // messages already written by Store.Save
}

// New starts an empty session. An empty id gets a generated one.
func New(id, provider, model, systemMessage string) *Session {
	if id == "" {
		id = NewID()
	}
	return &Session{
		ID:            id,
		StartTime:     time.Now(),
		Provider:      provider,
		Model:         model,
		SystemMessage: systemMessage,
		Messages:      []Message{},
	}
}

// NewID returns a fresh session id
func NewID() string {
	return "session_" + uuid.NewString()
}

// Append adds a message stamped with the current time
func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Pending returns the messages not yet saved
func (s *Session) Pending() []Message {
	return s.Messages[s.persisted:]
}
