package redisstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func newTask(id string, uid int64) *analysis.Task {
	return &analysis.Task{
		ID:        analysis.TaskID(id),
		Status:    analysis.StatusProcessing,
		UserID:    uid,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTaskStoreCreateGet(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTask("t1", 9)))
	require.NoError(t, store.SetJobHandle(ctx, "t1", "job-1"))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusProcessing, got.Status)
	assert.Equal(t, int64(9), got.UserID)
	assert.Equal(t, "job-1", got.JobID)
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.CompletedAt)

	// bentuk hash yang tersimpan
	assert.Equal(t, "job-1", mr.HGet("task:t1", "celery_task_id"))
	assert.Equal(t, "9", mr.HGet("task:t1", "user_id"))
	assert.Equal(t, 24*time.Hour, mr.TTL("task:t1"))
}

func TestTaskStoreMissing(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, analysis.ErrTaskNotFound))
	assert.True(t, errors.Is(store.SetJobHandle(ctx, "nope", "job"), analysis.ErrTaskNotFound))
	_, err = store.Complete(ctx, "nope", "r", "p")
	assert.True(t, errors.Is(err, analysis.ErrTaskNotFound))
}

func TestTaskStoreTransitionsForwardOnly(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewTaskStore(rdb, "coach", time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTask("t1", 1)))

	applied, err := store.Complete(ctx, "t1", "great form", "pull-ups × 9")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.Complete(ctx, "t1", "other", "other")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = store.Fail(ctx, "t1", "late failure")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusCompleted, got.Status)
	assert.Equal(t, "great form", got.Result)
	assert.Equal(t, "pull-ups × 9", got.Project)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.CompletedAt)
}

func TestTaskStoreFail(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTask("t1", 1)))

	applied, err := store.Fail(ctx, "t1", analysis.FootageUnusable)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusError, got.Status)
	assert.Equal(t, analysis.FootageUnusable, got.Error)
}

func TestTaskStoreConcurrentCompleteAppliesOnce(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTask("t1", 1)))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Complete(ctx, "t1", "r", "p")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
}

func TestTaskStoreExpires(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", 24*time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTask("t1", 1)))
	require.NoError(t, store.SetUserTask(ctx, 1, "t1"))

	mr.FastForward(25 * time.Hour)

	_, err := store.Get(ctx, "t1")
	assert.True(t, errors.Is(err, analysis.ErrTaskNotFound))
	id, err := store.UserTask(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestTaskStoreUserPointer(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", time.Hour)
	ctx := context.Background()

	id, err := store.UserTask(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.SetUserTask(ctx, 5, "a"))
	require.NoError(t, store.SetUserTask(ctx, 5, "b"))
	id, err = store.UserTask(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, analysis.TaskID("b"), id)
	assert.Equal(t, time.Hour, mr.TTL("user_task:5"))

	require.NoError(t, store.ClearUserTask(ctx, 5))
	id, err = store.UserTask(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestTaskStoreDelete(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewTaskStore(rdb, "", time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTask("t1", 1)))
	require.NoError(t, store.Delete(ctx, "t1"))
	_, err := store.Get(ctx, "t1")
	assert.True(t, errors.Is(err, analysis.ErrTaskNotFound))
}

func TestConversationFirstWriteWins(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewConversationStore(rdb, "", 24*time.Hour)
	ctx := context.Background()

	conv, err := store.Conversation(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, conv)

	ok, err := store.SetConversationIfAbsent(ctx, 3, "conv-a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.SetConversationIfAbsent(ctx, 3, "conv-b")
	require.NoError(t, err)
	assert.False(t, ok)

	conv, err = store.Conversation(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "conv-a", conv)
	assert.Equal(t, 24*time.Hour, mr.TTL("conversation:3"))

	require.NoError(t, store.ClearConversation(ctx, 3))
	conv, err = store.Conversation(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestConversationHistory(t *testing.T) {
	_, rdb := newRedis(t)
	store := NewConversationStore(rdb, "", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "c1",
		chat.Turn{Role: "user", Content: "hi"},
		chat.Turn{Role: "assistant", Content: "hello"}))
	for i := 0; i < maxHistoryTurns; i++ {
		require.NoError(t, store.Append(ctx, "c1", chat.Turn{Role: "user", Content: "x"}))
	}

	turns, err := store.Turns(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, turns, maxHistoryTurns)
	assert.Equal(t, "x", turns[0].Content)

	empty, err := store.Turns(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
