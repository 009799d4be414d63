package analysis

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type memTasks struct {
	mu        sync.Mutex
	tasks     map[domain.TaskID]domain.Task
	pointers  map[int64]domain.TaskID
	createErr error
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: map[domain.TaskID]domain.Task{}, pointers: map[int64]domain.TaskID{}}
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.tasks[t.ID] = *t
	return nil
}

func (m *memTasks) Get(_ context.Context, id domain.TaskID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTasks) SetJobHandle(_ context.Context, id domain.TaskID, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.JobID = handle
	m.tasks[id] = t
	return nil
}

func (m *memTasks) finish(id domain.TaskID, apply func(*domain.Task)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return false, domain.ErrTaskNotFound
	}
	if !t.Status.Open() {
		return false, nil
	}
	apply(&t)
	now := time.Unix(1700000000, 0)
	t.CompletedAt = &now
	m.tasks[id] = t
	return true, nil
}

func (m *memTasks) Complete(_ context.Context, id domain.TaskID, result, project string) (bool, error) {
	return m.finish(id, func(t *domain.Task) {
		t.Status = domain.StatusCompleted
		t.Result = result
		t.Project = project
	})
}

func (m *memTasks) Fail(_ context.Context, id domain.TaskID, reason string) (bool, error) {
	return m.finish(id, func(t *domain.Task) {
		t.Status = domain.StatusError
		t.Error = reason
	})
}

func (m *memTasks) Delete(_ context.Context, id domain.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memTasks) SetUserTask(_ context.Context, uid int64, id domain.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointers[uid] = id
	return nil
}

func (m *memTasks) UserTask(_ context.Context, uid int64) (domain.TaskID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pointers[uid], nil
}

func (m *memTasks) ClearUserTask(_ context.Context, uid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pointers, uid)
	return nil
}

type fakeQueue struct {
	mu         sync.Mutex
	jobs       []domain.Job
	outcomes   map[string]domain.JobOutcome
	enqueueErr error
	inspectErr error
	inspects   int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{outcomes: map[string]domain.JobOutcome{}}
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return "job-" + string(job.TaskID), nil
}

func (q *fakeQueue) Inspect(_ context.Context, handle string) (domain.JobOutcome, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inspects++
	if q.inspectErr != nil {
		return domain.JobOutcome{}, q.inspectErr
	}
	out, ok := q.outcomes[handle]
	if !ok {
		return domain.JobOutcome{State: domain.JobRunning}, nil
	}
	return out, nil
}

func (q *fakeQueue) finish(id domain.TaskID, out domain.JobOutcome) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outcomes["job-"+string(id)] = out
}

type memVideos struct {
	mu      sync.Mutex
	files   map[string][]byte
	failOn  string
	removed []string
}

func newMemVideos() *memVideos {
	return &memVideos{files: map[string][]byte{}}
}

func (v *memVideos) Save(_ context.Context, name string, r io.Reader) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failOn != "" && strings.Contains(name, v.failOn) {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	v.files[name] = b
	return "/uploads/" + name, nil
}

func (v *memVideos) Remove(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.files, name)
	v.removed = append(v.removed, name)
	return nil
}

type memHistory struct {
	mu      sync.Mutex
	records []*history.Record
	err     error
}

func (h *memHistory) Commit(_ context.Context, userID int64, score int, content, project string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return 0, h.err
	}
	id := int64(len(h.records) + 1)
	h.records = append(h.records, &history.Record{
		ID: id, UserID: userID, RatingID: id, Project: project,
		Rating: history.Rating{ID: id, Score: score, Content: content},
	})
	return id, nil
}

func (h *memHistory) ListByUser(context.Context, int64) ([]*history.Record, error) {
	return h.records, nil
}

func (h *memHistory) Get(context.Context, int64, int64) (*history.Record, error) {
	return nil, history.ErrNotFound
}

func (h *memHistory) ListAll(context.Context) ([]*history.Record, error) {
	return h.records, nil
}

type memConversations struct {
	mu    sync.Mutex
	convs map[int64]string
}

func (c *memConversations) Conversation(_ context.Context, uid int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convs[uid], nil
}

func (c *memConversations) SetConversationIfAbsent(_ context.Context, uid int64, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.convs[uid] != "" {
		return false, nil
	}
	c.convs[uid] = id
	return true, nil
}

func (c *memConversations) ClearConversation(_ context.Context, uid int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.convs, uid)
	return nil
}

type fakeFront struct {
	report *domain.FrontReport
	err    error
}

func (f fakeFront) AnalyzeFront(context.Context, string) (*domain.FrontReport, error) {
	return f.report, f.err
}

type fakeSide struct {
	report *domain.SideReport
	err    error
}

func (f fakeSide) AnalyzeSide(context.Context, string) (*domain.SideReport, error) {
	return f.report, f.err
}
