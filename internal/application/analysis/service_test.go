package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

type harness struct {
	svc    *Service
	tasks  *memTasks
	queue  *fakeQueue
	videos *memVideos
	hist   *memHistory
	convs  *memConversations
}

func newHarness() *harness {
	h := &harness{
		tasks:  newMemTasks(),
		queue:  newFakeQueue(),
		videos: newMemVideos(),
		hist:   &memHistory{},
		convs:  &memConversations{convs: map[int64]string{}},
	}
	h.svc = &Service{
		Tasks:             h.tasks,
		Queue:             h.queue,
		Videos:            h.videos,
		History:           h.hist,
		Conversations:     h.convs,
		Clock:             fixedClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		Log:               zap.NewNop(),
		AllowedExtensions: []string{"mp4", "mov", "avi"},
		ScoreMarker:       "评分",
	}
	return h
}

func upload(name, body string) *domain.Upload {
	return &domain.Upload{Filename: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func (h *harness) submit(t *testing.T, uid int64) domain.TaskID {
	t.Helper()
	id, err := h.svc.Submit(context.Background(), SubmitCommand{
		UserID: uid,
		Front:  upload("front.mp4", "front-bytes"),
		Side:   upload("side.mov", "side-bytes"),
	})
	require.NoError(t, err)
	return id
}

func TestSubmitThenPollIsProcessing(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 7)

	view, err := h.svc.Poll(context.Background(), 7, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, view.Status)

	require.Len(t, h.queue.jobs, 1)
	job := h.queue.jobs[0]
	assert.Equal(t, id, job.TaskID)
	assert.Equal(t, int64(7), job.UserID)
	assert.Equal(t, "/uploads/"+string(id)+"_front_front.mp4", job.FrontPath)
	assert.Equal(t, "/uploads/"+string(id)+"_side_side.mov", job.SidePath)

	task, err := h.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "job-"+string(id), task.JobID)

	ptr, _ := h.tasks.UserTask(context.Background(), 7)
	assert.Equal(t, id, ptr)
}

func TestSubmitRejectsDisallowedExtensionBeforeWriting(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Submit(context.Background(), SubmitCommand{
		UserID: 1,
		Front:  upload("front.mp4", "a"),
		Side:   upload("notes.txt", "b"),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidUpload))
	assert.Empty(t, h.videos.files)
	assert.Empty(t, h.queue.jobs)
	assert.Empty(t, h.tasks.tasks)
}

func TestSubmitRejectsMissingOrEmptyFile(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Submit(context.Background(), SubmitCommand{UserID: 1, Front: upload("f.mp4", "x")})
	assert.True(t, errors.Is(err, domain.ErrInvalidUpload))

	_, err = h.svc.Submit(context.Background(), SubmitCommand{UserID: 1, Front: upload("f.mp4", ""), Side: upload("s.mp4", "x")})
	assert.True(t, errors.Is(err, domain.ErrInvalidUpload))
	assert.Empty(t, h.videos.files)
}

func TestSubmitSaveFailureLeavesNothing(t *testing.T) {
	h := newHarness()
	h.videos.failOn = "_side_"
	_, err := h.svc.Submit(context.Background(), SubmitCommand{
		UserID: 1,
		Front:  upload("front.mp4", "a"),
		Side:   upload("side.mp4", "b"),
	})
	require.Error(t, err)
	assert.Empty(t, h.videos.files)
	assert.Empty(t, h.tasks.tasks)
	assert.Empty(t, h.queue.jobs)
}

func TestSubmitQueueFailureRollsBack(t *testing.T) {
	h := newHarness()
	h.queue.enqueueErr = errors.New("redis down")
	_, err := h.svc.Submit(context.Background(), SubmitCommand{
		UserID: 1,
		Front:  upload("front.mp4", "a"),
		Side:   upload("side.mp4", "b"),
	})
	require.Error(t, err)
	assert.Empty(t, h.videos.files)
	assert.Len(t, h.videos.removed, 2)
	assert.Empty(t, h.tasks.tasks)
	ptr, _ := h.tasks.UserTask(context.Background(), 1)
	assert.Empty(t, ptr)
}

func TestSubmitTaskCreateFailureRemovesFiles(t *testing.T) {
	h := newHarness()
	h.tasks.createErr = errors.New("redis down")
	_, err := h.svc.Submit(context.Background(), SubmitCommand{
		UserID: 1,
		Front:  upload("front.mp4", "a"),
		Side:   upload("side.mp4", "b"),
	})
	require.Error(t, err)
	assert.Empty(t, h.videos.files)
	assert.Empty(t, h.queue.jobs)
}

func TestPollUnknownTask(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Poll(context.Background(), 1, "missing")
	assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
}

func TestPollOtherUserForbidden(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobSucceeded, Outcome: domain.Outcome{Result: "secret", Project: "p"}})

	view, err := h.svc.Poll(context.Background(), 2, id)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Empty(t, view.Result)
	assert.Equal(t, 0, h.queue.inspects)
}

func TestPollReconcilesCompletionIdempotently(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobSucceeded, Outcome: domain.Outcome{Result: "good form", Project: "pull-ups × 8"}})

	first, err := h.svc.Poll(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, first.Status)
	assert.Equal(t, "good form", first.Result)
	assert.Equal(t, "pull-ups × 8", first.Project)

	// hasil job berubah tidak boleh menimpa state yang sudah completed
	h.queue.finish(id, domain.JobOutcome{State: domain.JobFailed, Outcome: domain.Outcome{Error: "late"}})
	for i := 0; i < 3; i++ {
		again, err := h.svc.Poll(context.Background(), 1, id)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, h.queue.inspects)
	assert.Empty(t, h.hist.records)
}

func TestConcurrentPollsConverge(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobSucceeded, Outcome: domain.Outcome{Result: "r", Project: "p"}})

	var wg sync.WaitGroup
	views := make([]domain.View, 8)
	for i := range views {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := h.svc.Poll(context.Background(), 1, id)
			assert.NoError(t, err)
			views[i] = v
		}(i)
	}
	wg.Wait()
	for _, v := range views {
		assert.Equal(t, views[0], v)
	}
	assert.Equal(t, domain.StatusCompleted, views[0].Status)
}

func TestPollMarksFailure(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobFailed, Outcome: domain.Outcome{Error: domain.FootageUnusable}})

	view, err := h.svc.Poll(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, view.Status)
	assert.Equal(t, domain.FootageUnusable, view.Error)
	assert.Empty(t, view.Result)
}

func TestPollFailureWithoutDetail(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobFailed})

	view, err := h.svc.Poll(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, view.Status)
	assert.NotEmpty(t, view.Error)
}

func TestPollEmptyResultIsError(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobSucceeded, Outcome: domain.Outcome{Result: "  "}})

	view, err := h.svc.Poll(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, view.Status)
}

func TestPollQueueErrorIsNonFatal(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.queue.inspectErr = errors.New("connection refused")

	view, err := h.svc.Poll(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, view.Status)

	task, _ := h.tasks.Get(context.Background(), id)
	assert.Equal(t, domain.StatusProcessing, task.Status)
}

func completeTask(t *testing.T, h *harness, uid int64, result, project string) domain.TaskID {
	t.Helper()
	id := h.submit(t, uid)
	h.queue.finish(id, domain.JobOutcome{State: domain.JobSucceeded, Outcome: domain.Outcome{Result: result, Project: project}})
	_, err := h.svc.Poll(context.Background(), uid, id)
	require.NoError(t, err)
	return id
}

func TestCommitParsesScoreAndNarrative(t *testing.T) {
	h := newHarness()
	completeTask(t, h, 1, "analysis text", "pull-ups × 10")

	hid, err := h.svc.Commit(context.Background(), 1, "评分: 87\n内容很好\n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hid)

	require.Len(t, h.hist.records, 1)
	rec := h.hist.records[0]
	assert.Equal(t, int64(1), rec.UserID)
	assert.Equal(t, 87, rec.Rating.Score)
	assert.Equal(t, "内容很好", rec.Rating.Content)
	assert.Equal(t, "pull-ups × 10", rec.Project)
}

func TestCommitTwiceCreatesTwoRecords(t *testing.T) {
	h := newHarness()
	completeTask(t, h, 1, "x", "p")

	_, err := h.svc.Commit(context.Background(), 1, "评分: 80\nok")
	require.NoError(t, err)
	_, err = h.svc.Commit(context.Background(), 1, "评分: 80\nok")
	require.NoError(t, err)
	assert.Len(t, h.hist.records, 2)
}

func TestCommitFallsBackToTaskResult(t *testing.T) {
	h := newHarness()
	completeTask(t, h, 1, "评分: 70\n手臂伸直", "p")

	_, err := h.svc.Commit(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, 70, h.hist.records[0].Rating.Score)
}

func TestCommitErrors(t *testing.T) {
	t.Run("no active task", func(t *testing.T) {
		h := newHarness()
		_, err := h.svc.Commit(context.Background(), 1, "评分: 1")
		assert.True(t, errors.Is(err, domain.ErrNoActiveTask))
	})
	t.Run("expired task", func(t *testing.T) {
		h := newHarness()
		id := h.submit(t, 1)
		delete(h.tasks.tasks, id)
		_, err := h.svc.Commit(context.Background(), 1, "评分: 1")
		assert.True(t, errors.Is(err, domain.ErrNoActiveTask))
	})
	t.Run("still processing", func(t *testing.T) {
		h := newHarness()
		h.submit(t, 1)
		_, err := h.svc.Commit(context.Background(), 1, "评分: 1")
		assert.True(t, errors.Is(err, domain.ErrTaskNotCompleted))
	})
	t.Run("pointer to other user task", func(t *testing.T) {
		h := newHarness()
		id := completeTask(t, h, 1, "r", "p")
		require.NoError(t, h.tasks.SetUserTask(context.Background(), 2, id))
		_, err := h.svc.Commit(context.Background(), 2, "评分: 1")
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		assert.Empty(t, h.hist.records)
	})
	t.Run("missing score", func(t *testing.T) {
		h := newHarness()
		completeTask(t, h, 1, "r", "p")
		_, err := h.svc.Commit(context.Background(), 1, "no score here")
		assert.True(t, errors.Is(err, domain.ErrScoreMissing))
		assert.Empty(t, h.hist.records)
	})
}

func TestClearThenPollNotFound(t *testing.T) {
	h := newHarness()
	id := h.submit(t, 1)
	h.convs.convs[1] = "conv-1"

	require.NoError(t, h.svc.Clear(context.Background(), 1))

	_, err := h.svc.Poll(context.Background(), 1, id)
	assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
	assert.Empty(t, h.convs.convs[1])

	next := h.submit(t, 1)
	assert.NotEqual(t, id, next)
	ptr, _ := h.tasks.UserTask(context.Background(), 1)
	assert.Equal(t, next, ptr)
}

func TestClearWithoutTask(t *testing.T) {
	h := newHarness()
	assert.NoError(t, h.svc.Clear(context.Background(), 42))
}

func TestNewSubmitOrphansPreviousTask(t *testing.T) {
	h := newHarness()
	first := h.submit(t, 1)
	second := h.submit(t, 1)

	ptr, _ := h.tasks.UserTask(context.Background(), 1)
	assert.Equal(t, second, ptr)

	// task lama masih bisa dipoll sampai expire
	view, err := h.svc.Poll(context.Background(), 1, first)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, view.Status)
}
