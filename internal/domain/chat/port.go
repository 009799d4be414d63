package chat

import (
	"context"
	"errors"
)

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrUpstream     = errors.New("chat agent stream failed")
)

// Request is one user turn sent to the agent.
type Request struct {
	Query          string
	User           string
	ConversationID string
}

// Event is one incremental piece of the agent reply.
type Event struct {
	Answer         string
	ConversationID string
	End            bool
}

// Chunk is what the relay forwards to the caller.
type Chunk struct {
	Content string `json:"content"`
}

// Stream yields events until io.EOF or End.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Agent port (Dify atau OpenAI)
type Agent interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// ConversationStore keeps the per-user conversation token.
type ConversationStore interface {
	Conversation(ctx context.Context, uid int64) (string, error)
	SetConversationIfAbsent(ctx context.Context, uid int64, conversationID string) (bool, error)
	ClearConversation(ctx context.Context, uid int64) error
}

// Turn is one message of a stored conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore keeps prior turns for agents that have no server-side memory.
type HistoryStore interface {
	Turns(ctx context.Context, conversationID string) ([]Turn, error)
	Append(ctx context.Context, conversationID string, turns ...Turn) error
}
