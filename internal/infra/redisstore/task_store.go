package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// field names of the task hash
const (
	fieldStatus      = "status"
	fieldResult      = "result"
	fieldProject     = "project"
	fieldError       = "error"
	fieldUserID      = "user_id"
	fieldJobID       = "celery_task_id" // nama lama dipertahankan supaya record lama tetap terbaca
	fieldCreatedAt   = "created_at"
	fieldCompletedAt = "completed_at"
)

// setJobScript only touches an existing task.
var setJobScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// finishScript moves an open task to a final state exactly once.
// ARGV: status, completed_at, then field/value pairs.
// Returns -1 when the task is gone, 0 when it is already final, 1 when applied.
var finishScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then
  return -1
end
if s ~= 'pending' and s ~= 'processing' then
  return 0
end
local args = {'status', ARGV[1], 'completed_at', ARGV[2]}
for i = 3, #ARGV do
  args[#args + 1] = ARGV[i]
end
redis.call('HSET', KEYS[1], unpack(args))
return 1
`)

// TaskStore is the Redis-backed analysis.TaskStore.
type TaskStore struct {
	rdb *redis.Client
	ks  keyspace
	ttl time.Duration
	now func() time.Time
}

func NewTaskStore(rdb *redis.Client, prefix string, ttl time.Duration) *TaskStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskStore{rdb: rdb, ks: keyspace{prefix: prefix}, ttl: ttl, now: time.Now}
}

func (s *TaskStore) taskKey(id analysis.TaskID) string {
	return s.ks.key("task", string(id))
}

func (s *TaskStore) userTaskKey(uid int64) string {
	return s.ks.key("user_task", strconv.FormatInt(uid, 10))
}

// Create writes the task hash and its expiry atomically.
func (s *TaskStore) Create(ctx context.Context, t *analysis.Task) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	key := s.taskKey(t.ID)
	fields := map[string]any{
		fieldStatus:    string(t.Status),
		fieldUserID:    strconv.FormatInt(t.UserID, 10),
		fieldCreatedAt: created.UTC().Format(time.RFC3339Nano),
	}
	if t.JobID != "" {
		fields[fieldJobID] = t.JobID
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create task %s: %w", t.ID, err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id analysis.TaskID) (*analysis.Task, error) {
	m, err := s.rdb.HGetAll(ctx, s.taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(m) == 0 {
		return nil, analysis.ErrTaskNotFound
	}
	return decodeTask(id, m)
}

func decodeTask(id analysis.TaskID, m map[string]string) (*analysis.Task, error) {
	t := &analysis.Task{
		ID:      id,
		Status:  analysis.Status(m[fieldStatus]),
		JobID:   m[fieldJobID],
		Result:  m[fieldResult],
		Project: m[fieldProject],
		Error:   m[fieldError],
	}
	if v := m[fieldUserID]; v != "" {
		uid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("task %s: bad user_id %q", id, v)
		}
		t.UserID = uid
	}
	if v := m[fieldCreatedAt]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			t.CreatedAt = ts
		}
	}
	if v := m[fieldCompletedAt]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			t.CompletedAt = &ts
		}
	}
	return t, nil
}

func (s *TaskStore) SetJobHandle(ctx context.Context, id analysis.TaskID, handle string) error {
	n, err := setJobScript.Run(ctx, s.rdb, []string{s.taskKey(id)}, fieldJobID, handle).Int()
	if err != nil {
		return fmt.Errorf("set job handle %s: %w", id, err)
	}
	if n == 0 {
		return analysis.ErrTaskNotFound
	}
	return nil
}

// Complete marks an open task completed. Re-applying is a no-op.
func (s *TaskStore) Complete(ctx context.Context, id analysis.TaskID, result, project string) (bool, error) {
	return s.finish(ctx, id, analysis.StatusCompleted, fieldResult, result, fieldProject, project)
}

// Fail marks an open task as error. Re-applying is a no-op.
func (s *TaskStore) Fail(ctx context.Context, id analysis.TaskID, reason string) (bool, error) {
	return s.finish(ctx, id, analysis.StatusError, fieldError, reason)
}

func (s *TaskStore) finish(ctx context.Context, id analysis.TaskID, status analysis.Status, pairs ...string) (bool, error) {
	args := []any{string(status), s.now().UTC().Format(time.RFC3339Nano)}
	for _, p := range pairs {
		args = append(args, p)
	}
	n, err := finishScript.Run(ctx, s.rdb, []string{s.taskKey(id)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("finish task %s: %w", id, err)
	}
	switch n {
	case -1:
		return false, analysis.ErrTaskNotFound
	case 0:
		return false, nil
	}
	return true, nil
}

func (s *TaskStore) Delete(ctx context.Context, id analysis.TaskID) error {
	return s.rdb.Del(ctx, s.taskKey(id)).Err()
}

func (s *TaskStore) SetUserTask(ctx context.Context, uid int64, id analysis.TaskID) error {
	return s.rdb.Set(ctx, s.userTaskKey(uid), string(id), s.ttl).Err()
}

// UserTask returns "" when the user has no current task.
func (s *TaskStore) UserTask(ctx context.Context, uid int64) (analysis.TaskID, error) {
	v, err := s.rdb.Get(ctx, s.userTaskKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get user task: %w", err)
	}
	return analysis.TaskID(v), nil
}

func (s *TaskStore) ClearUserTask(ctx context.Context, uid int64) error {
	return s.rdb.Del(ctx, s.userTaskKey(uid)).Err()
}
