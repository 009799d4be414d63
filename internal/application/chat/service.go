package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

// Service relays user messages to the coaching agent and streams the reply back.
type Service struct {
	Agent         domain.Agent
	Conversations domain.ConversationStore
	Log           *zap.Logger
}

// Relay forwards message upstream and passes every answer chunk to emit as it
// arrives. The first conversation token seen is stored for the user unless
// one is already set. Upstream failures come back wrapped in ErrUpstream; the
// relay never retries.
func (s *Service) Relay(ctx context.Context, userID int64, message string, emit func(domain.Chunk) error) error {
	if strings.TrimSpace(message) == "" {
		return domain.ErrEmptyMessage
	}

	conv, err := s.Conversations.Conversation(ctx, userID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	stream, err := s.Agent.Open(ctx, domain.Request{
		Query:          message,
		User:           UserTag(userID),
		ConversationID: conv,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer stream.Close()

	stored := conv != ""
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}

		if !stored && ev.ConversationID != "" {
			if _, err := s.Conversations.SetConversationIfAbsent(ctx, userID, ev.ConversationID); err != nil {
				s.Log.Warn("store conversation failed", zap.Int64("user_id", userID), zap.Error(err))
			}
			stored = true
		}
		if ev.End {
			return nil
		}
		if ev.Answer == "" {
			continue
		}
		if err := emit(domain.Chunk{Content: ev.Answer}); err != nil {
			return err
		}
	}
}

// UserTag is the user identifier sent to the agent.
func UserTag(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}
