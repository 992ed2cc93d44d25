package chat

import (
	"context"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleCoach Role = "coach"
)

// Message is one immutable transcript entry.
type Message struct {
	ID     string    `json:"id"`
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// Responder produces the coach reply for a transcript whose last entry is
// the user message being answered.
type Responder interface {
	Reply(ctx context.Context, history []Message) (string, error)
}

// Config controls reply scheduling.
type Config struct {
	ReplyDelay time.Duration
}

// View is the panel state rendered by the page.
type View struct {
	Input    string    `json:"messageInput"`
	Messages []Message `json:"chatMessages"`
	// Scroll increments whenever the transcript grows; the client scrolls to bottom on change.
	Scroll  int `json:"scroll"`
	Pending int `json:"pending"`
}
