package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

type memHistory struct {
	turns map[string][]chat.Turn
}

func (m *memHistory) Turns(_ context.Context, id string) ([]chat.Turn, error) {
	return m.turns[id], nil
}

func (m *memHistory) Append(_ context.Context, id string, turns ...chat.Turn) error {
	m.turns[id] = append(m.turns[id], turns...)
	return nil
}

func chunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": content}}},
	})
	return "data: " + string(b) + "\n\n"
}

func TestClientStreamsAndRemembers(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, chunk("Dead "))
		fmt.Fprint(w, chunk("hangs help."))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	history := &memHistory{turns: map[string][]chat.Turn{
		"conv-1": {{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}},
	}}
	c := NewClientWithConfig(cfg, "gpt-4o-mini", "", history)

	s, err := c.Open(context.Background(), chat.Request{Query: "grip tips?", User: "user-2", ConversationID: "conv-1"})
	require.NoError(t, err)
	defer s.Close()

	var answer string
	for {
		ev, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "conv-1", ev.ConversationID)
		if ev.End {
			break
		}
		answer += ev.Answer
	}
	assert.Equal(t, "Dead hangs help.", answer)

	// system + 2 turn lama + pesan baru
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "grip tips?", req.Messages[3].Content)
	assert.Equal(t, "user-2", req.User)

	turns := history.turns["conv-1"]
	require.Len(t, turns, 4)
	assert.Equal(t, "Dead hangs help.", turns[3].Content)
}

func TestClientAssignsConversationID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, chunk("ok"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	c := NewClientWithConfig(cfg, "", "custom prompt", &memHistory{turns: map[string][]chat.Turn{}})

	s, err := c.Open(context.Background(), chat.Request{Query: "hi"})
	require.NoError(t, err)
	defer s.Close()
	ev, err := s.Recv()
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ConversationID)
	assert.Equal(t, "ok", ev.Answer)
}
