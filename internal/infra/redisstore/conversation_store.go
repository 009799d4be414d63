package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

const maxHistoryTurns = 40

// ConversationStore keeps chat state per user and per conversation.
type ConversationStore struct {
	rdb *redis.Client
	ks  keyspace
	ttl time.Duration
}

func NewConversationStore(rdb *redis.Client, prefix string, ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ConversationStore{rdb: rdb, ks: keyspace{prefix: prefix}, ttl: ttl}
}

func (s *ConversationStore) conversationKey(uid int64) string {
	return s.ks.key("conversation", strconv.FormatInt(uid, 10))
}

func (s *ConversationStore) historyKey(conversationID string) string {
	return s.ks.key("chat_history", conversationID)
}

// Conversation returns "" when no conversation has started.
func (s *ConversationStore) Conversation(ctx context.Context, uid int64) (string, error) {
	v, err := s.rdb.Get(ctx, s.conversationKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get conversation: %w", err)
	}
	return v, nil
}

// SetConversationIfAbsent never overwrites an existing token.
func (s *ConversationStore) SetConversationIfAbsent(ctx context.Context, uid int64, conversationID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.conversationKey(uid), conversationID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set conversation: %w", err)
	}
	return ok, nil
}

func (s *ConversationStore) ClearConversation(ctx context.Context, uid int64) error {
	return s.rdb.Del(ctx, s.conversationKey(uid)).Err()
}

// Turns returns the stored turns, oldest first.
func (s *ConversationStore) Turns(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	raw, err := s.rdb.LRange(ctx, s.historyKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	turns := make([]chat.Turn, 0, len(raw))
	for _, r := range raw {
		var t chat.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append adds turns and keeps only the most recent ones.
func (s *ConversationStore) Append(ctx context.Context, conversationID string, turns ...chat.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	vals := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		vals = append(vals, string(b))
	}
	key := s.historyKey(conversationID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, -maxHistoryTurns, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	return nil
}
