package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client is a chat.Agent backed by the OpenAI chat completions stream.
// OpenAI keeps no conversation state, so prior turns live in History.
type Client struct {
	*openai.Client
	Model        string
	SystemPrompt string
	History      chat.HistoryStore
}

func NewClientWithConfig(cfg openai.ClientConfig, model, systemPrompt string, history chat.HistoryStore) *Client {
	return &Client{
		Client:       openai.NewClientWithConfig(cfg),
		Model:        model,
		SystemPrompt: systemPrompt,
		History:      history,
	}
}

func (c *Client) Open(ctx context.Context, req chat.Request) (chat.Stream, error) {
	model := c.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	turns, err := c.History.Turns(ctx, convID)
	if err != nil {
		return nil, err
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt(c.SystemPrompt)})
	for _, t := range turns {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Query})

	creq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
		User:     req.User,
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		creq.MaxCompletionTokens = maxTokens
	} else {
		creq.MaxTokens = maxTokens
	}

	s, err := c.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion stream: %w", err)
	}
	return &stream{ctx: ctx, s: s, convID: convID, query: req.Query, history: c.History}, nil
}

type stream struct {
	ctx     context.Context
	s       *openai.ChatCompletionStream
	convID  string
	query   string
	history chat.HistoryStore
	answer  strings.Builder
	done    bool
}

func (st *stream) Recv() (chat.Event, error) {
	if st.done {
		return chat.Event{}, io.EOF
	}
	resp, err := st.s.Recv()
	if errors.Is(err, io.EOF) {
		st.done = true
		if err := st.remember(); err != nil {
			return chat.Event{}, err
		}
		return chat.Event{ConversationID: st.convID, End: true}, nil
	}
	if err != nil {
		return chat.Event{}, err
	}
	ev := chat.Event{ConversationID: st.convID}
	if len(resp.Choices) > 0 {
		ev.Answer = resp.Choices[0].Delta.Content
		st.answer.WriteString(ev.Answer)
	}
	return ev, nil
}

// remember stores the finished exchange for the next turn.
func (st *stream) remember() error {
	return st.history.Append(context.WithoutCancel(st.ctx), st.convID,
		chat.Turn{Role: openai.ChatMessageRoleUser, Content: st.query},
		chat.Turn{Role: openai.ChatMessageRoleAssistant, Content: st.answer.String()},
	)
}

func (st *stream) Close() error {
	return st.s.Close()
}
