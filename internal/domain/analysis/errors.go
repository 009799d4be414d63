package analysis

import "errors"

var (
	ErrInvalidUpload    = errors.New("invalid upload")
	ErrTaskNotFound     = errors.New("task not found")
	ErrForbidden        = errors.New("task belongs to another user")
	ErrNoActiveTask     = errors.New("no active analysis task")
	ErrTaskNotCompleted = errors.New("analysis task is not completed")
	ErrScoreMissing     = errors.New("evaluation has no score line")
)

// FootageUnusable is the message shown when either analyzer gives up on a video.
const FootageUnusable = "video processing failed, please check video clarity or background"
