package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
)

// Service implements the analysis job lifecycle: submit, poll, commit, clear.
// All task state lives in Tasks, so any number of API instances can share it.
type Service struct {
	Tasks         domain.TaskStore
	Queue         domain.JobQueue
	Videos        domain.VideoStore
	History       history.Repository
	Conversations chat.ConversationStore
	Clock         application.Clock
	Log           *zap.Logger

	AllowedExtensions []string
	ScoreMarker       string
}

//
// ==== USE CASES ====
//

// SubmitCommand untuk upload dua video
type SubmitCommand struct {
	UserID int64
	Front  *domain.Upload
	Side   *domain.Upload
}

// Submit saves both videos, creates the task and enqueues the job.
// It never waits for the analysis itself.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (domain.TaskID, error) {
	// validasi dulu, sebelum ada file yang ditulis
	if err := cmd.Front.Validate("front_video", s.AllowedExtensions); err != nil {
		return "", err
	}
	if err := cmd.Side.Validate("side_video", s.AllowedExtensions); err != nil {
		return "", err
	}

	id := domain.TaskID(uuid.New().String())
	frontName := domain.StoredName(id, "front", cmd.Front)
	sideName := domain.StoredName(id, "side", cmd.Side)

	frontPath, err := s.Videos.Save(ctx, frontName, cmd.Front.Body)
	if err != nil {
		return "", fmt.Errorf("save front video: %w", err)
	}
	sidePath, err := s.Videos.Save(ctx, sideName, cmd.Side.Body)
	if err != nil {
		s.removeVideos(ctx, frontName)
		return "", fmt.Errorf("save side video: %w", err)
	}

	task := &domain.Task{
		ID:        id,
		Status:    domain.StatusProcessing,
		UserID:    cmd.UserID,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Tasks.Create(ctx, task); err != nil {
		s.removeVideos(ctx, frontName, sideName)
		return "", fmt.Errorf("create task: %w", err)
	}

	handle, err := s.Queue.Enqueue(ctx, domain.Job{
		TaskID:    id,
		FrontPath: frontPath,
		SidePath:  sidePath,
		UserID:    cmd.UserID,
	})
	if err != nil {
		s.rollback(ctx, id, frontName, sideName)
		return "", fmt.Errorf("enqueue analysis job: %w", err)
	}
	if err := s.Tasks.SetJobHandle(ctx, id, handle); err != nil {
		s.rollback(ctx, id, frontName, sideName)
		return "", fmt.Errorf("record job handle: %w", err)
	}

	// task lama user ini otomatis ditinggal
	if err := s.Tasks.SetUserTask(ctx, cmd.UserID, id); err != nil {
		s.rollback(ctx, id, frontName, sideName)
		return "", fmt.Errorf("set user task: %w", err)
	}

	s.Log.Info("analysis submitted",
		zap.String("task_id", string(id)),
		zap.Int64("user_id", cmd.UserID),
		zap.String("job", handle))
	return id, nil
}

// Poll returns the task status, reconciling it with the queue while it is open.
func (s *Service) Poll(ctx context.Context, userID int64, id domain.TaskID) (domain.View, error) {
	task, err := s.Tasks.Get(ctx, id)
	if err != nil {
		return domain.View{}, err
	}
	if !task.OwnedBy(userID) {
		return domain.View{}, domain.ErrForbidden
	}
	if task.Status.Open() && task.JobID != "" {
		task = s.reconcile(ctx, task)
	}
	return domain.ViewOf(task), nil
}

// reconcile never fails the poll: on any error the task is returned unchanged.
func (s *Service) reconcile(ctx context.Context, task *domain.Task) *domain.Task {
	log := s.Log.With(zap.String("task_id", string(task.ID)), zap.String("job", task.JobID))

	out, err := s.Queue.Inspect(ctx, task.JobID)
	if err != nil {
		log.Warn("job status query failed", zap.Error(err))
		return task
	}

	var applied bool
	switch {
	case out.State == domain.JobRunning:
		return task
	case out.State == domain.JobFailed || out.Outcome.Failed():
		reason := out.Outcome.Error
		if reason == "" {
			reason = "analysis job failed"
		}
		applied, err = s.Tasks.Fail(ctx, task.ID, reason)
	case strings.TrimSpace(out.Outcome.Result) == "":
		applied, err = s.Tasks.Fail(ctx, task.ID, "analysis produced an empty result")
	default:
		applied, err = s.Tasks.Complete(ctx, task.ID, out.Outcome.Result, out.Outcome.Project)
	}
	if err != nil {
		log.Warn("task reconcile failed", zap.Error(err))
		return task
	}
	if applied {
		log.Info("task reconciled")
	}

	fresh, err := s.Tasks.Get(ctx, task.ID)
	if err != nil {
		log.Warn("task reload failed", zap.Error(err))
		return task
	}
	return fresh
}

// Commit persists the evaluation of the user's current task as a rating plus
// a history record. The task is located through the user pointer and only
// read. Each call creates a new history row.
func (s *Service) Commit(ctx context.Context, userID int64, message string) (int64, error) {
	id, err := s.Tasks.UserTask(ctx, userID)
	if err != nil {
		return 0, err
	}
	if id == "" {
		return 0, domain.ErrNoActiveTask
	}
	task, err := s.Tasks.Get(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return 0, domain.ErrNoActiveTask
	}
	if err != nil {
		return 0, err
	}
	if !task.OwnedBy(userID) {
		return 0, domain.ErrForbidden
	}
	if task.Status != domain.StatusCompleted {
		return 0, domain.ErrTaskNotCompleted
	}

	text := message
	if strings.TrimSpace(text) == "" {
		text = task.Result
	}
	ev, err := domain.ParseEvaluation(text, s.ScoreMarker)
	if err != nil {
		return 0, err
	}

	hid, err := s.History.Commit(ctx, userID, ev.Score, ev.Narrative, task.Project)
	if err != nil {
		return 0, fmt.Errorf("commit history: %w", err)
	}
	s.Log.Info("evaluation committed",
		zap.String("task_id", string(id)),
		zap.Int64("user_id", userID),
		zap.Int64("history_id", hid),
		zap.Int("score", ev.Score))
	return hid, nil
}

// Clear discards the user's current task and conversation. A running job is
// abandoned, not cancelled.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	id, err := s.Tasks.UserTask(ctx, userID)
	if err != nil {
		return err
	}
	if id != "" {
		if err := s.Tasks.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if err := s.Tasks.ClearUserTask(ctx, userID); err != nil {
			return fmt.Errorf("clear user task: %w", err)
		}
	}
	if err := s.Conversations.ClearConversation(ctx, userID); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

func (s *Service) rollback(ctx context.Context, id domain.TaskID, names ...string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.Tasks.Delete(ctx, id); err != nil {
		s.Log.Warn("rollback: delete task failed", zap.String("task_id", string(id)), zap.Error(err))
	}
	s.removeVideos(ctx, names...)
}

func (s *Service) removeVideos(ctx context.Context, names ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := s.Videos.Remove(ctx, name); err != nil {
			s.Log.Warn("rollback: remove video failed", zap.String("file", name), zap.Error(err))
		}
	}
}
