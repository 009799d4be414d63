package chat

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

type scriptedStream struct {
	events []domain.Event
	err    error
	closed bool
}

func (s *scriptedStream) Recv() (domain.Event, error) {
	if len(s.events) == 0 {
		if s.err != nil {
			return domain.Event{}, s.err
		}
		return domain.Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type fakeAgent struct {
	stream  *scriptedStream
	openErr error
	got     domain.Request
}

func (a *fakeAgent) Open(_ context.Context, req domain.Request) (domain.Stream, error) {
	a.got = req
	if a.openErr != nil {
		return nil, a.openErr
	}
	return a.stream, nil
}

type memConversations struct{ convs map[int64]string }

func (m *memConversations) Conversation(_ context.Context, uid int64) (string, error) {
	return m.convs[uid], nil
}

func (m *memConversations) SetConversationIfAbsent(_ context.Context, uid int64, id string) (bool, error) {
	if m.convs[uid] != "" {
		return false, nil
	}
	m.convs[uid] = id
	return true, nil
}

func (m *memConversations) ClearConversation(_ context.Context, uid int64) error {
	delete(m.convs, uid)
	return nil
}

func collect(chunks *[]string) func(domain.Chunk) error {
	return func(c domain.Chunk) error {
		*chunks = append(*chunks, c.Content)
		return nil
	}
}

func TestRelayForwardsChunksAndStoresConversation(t *testing.T) {
	stream := &scriptedStream{events: []domain.Event{
		{Answer: "你好", ConversationID: "conv-1"},
		{Answer: "，继续保持", ConversationID: "conv-1"},
		{End: true, ConversationID: "conv-1"},
		{Answer: "after end"},
	}}
	agent := &fakeAgent{stream: stream}
	convs := &memConversations{convs: map[int64]string{}}
	svc := &Service{Agent: agent, Conversations: convs, Log: zap.NewNop()}

	var chunks []string
	require.NoError(t, svc.Relay(context.Background(), 3, "评价一下", collect(&chunks)))

	assert.Equal(t, []string{"你好", "，继续保持"}, chunks)
	assert.Equal(t, "conv-1", convs.convs[3])
	assert.Equal(t, domain.Request{Query: "评价一下", User: "user-3"}, agent.got)
	assert.True(t, stream.closed)
}

func TestRelayKeepsExistingConversation(t *testing.T) {
	stream := &scriptedStream{events: []domain.Event{{Answer: "x", ConversationID: "conv-new"}}}
	agent := &fakeAgent{stream: stream}
	convs := &memConversations{convs: map[int64]string{3: "conv-old"}}
	svc := &Service{Agent: agent, Conversations: convs, Log: zap.NewNop()}

	var chunks []string
	require.NoError(t, svc.Relay(context.Background(), 3, "hi", collect(&chunks)))
	assert.Equal(t, "conv-old", agent.got.ConversationID)
	assert.Equal(t, "conv-old", convs.convs[3])
}

func TestRelayUpstreamErrors(t *testing.T) {
	convs := &memConversations{convs: map[int64]string{}}

	svc := &Service{Agent: &fakeAgent{openErr: errors.New("request failed: 502")}, Conversations: convs, Log: zap.NewNop()}
	err := svc.Relay(context.Background(), 1, "hi", func(domain.Chunk) error { return nil })
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "502")

	stream := &scriptedStream{events: []domain.Event{{Answer: "part"}}, err: errors.New("connection reset")}
	svc = &Service{Agent: &fakeAgent{stream: stream}, Conversations: convs, Log: zap.NewNop()}
	var chunks []string
	err = svc.Relay(context.Background(), 1, "hi", collect(&chunks))
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Equal(t, []string{"part"}, chunks)
}

func TestRelayEmptyMessage(t *testing.T) {
	agent := &fakeAgent{}
	svc := &Service{Agent: agent, Conversations: &memConversations{convs: map[int64]string{}}, Log: zap.NewNop()}
	err := svc.Relay(context.Background(), 1, "   ", func(domain.Chunk) error { return nil })
	assert.True(t, errors.Is(err, domain.ErrEmptyMessage))
	assert.Empty(t, agent.got.Query)
}

func TestRelayStopsWhenClientGone(t *testing.T) {
	stream := &scriptedStream{events: []domain.Event{{Answer: "a"}, {Answer: "b"}}}
	svc := &Service{Agent: &fakeAgent{stream: stream}, Conversations: &memConversations{convs: map[int64]string{}}, Log: zap.NewNop()}
	gone := errors.New("client gone")
	err := svc.Relay(context.Background(), 1, "hi", func(domain.Chunk) error { return gone })
	assert.ErrorIs(t, err, gone)
	assert.Len(t, stream.events, 1)
}
