package plans

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("training plan not found")
	ErrInvalidInput = errors.New("invalid training plan")
	ErrNoChanges    = errors.New("nothing to update")
)

// DateLayout is the wire format of plan dates.
const DateLayout = "2006-01-02"

// Plan is one scheduled training session.
type Plan struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Date        time.Time `json:"-"`
	Project     string    `json:"project"`
	Target      int       `json:"target"`
	Note        string    `json:"note"`
	Completed   bool      `json:"completed"`
	ActualCount int       `json:"actualCount"`
	CreatedAt   time.Time `json:"-"`
}

// Patch is a partial plan update; nil fields are left untouched.
type Patch struct {
	Target      *int    `json:"target"`
	Note        *string `json:"note"`
	Completed   *bool   `json:"completed"`
	ActualCount *int    `json:"actualCount"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Target == nil && p.Note == nil && p.Completed == nil && p.ActualCount == nil
}

// DateFilter narrows trained-date queries; zero means no filter.
type DateFilter struct {
	Year  int
	Month int
}
