package feedback

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	domain "github.com/bryanwahyu/pullup-coach/internal/domain/feedback"
)

const maxContentLen = 2000

type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// Submit stores feedback from a user. Email is optional.
func (s *Service) Submit(ctx context.Context, userID int64, content, email string) (int64, error) {
	content = strings.TrimSpace(content)
	email = strings.TrimSpace(email)
	if content == "" {
		return 0, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if len([]rune(content)) > maxContentLen {
		return 0, fmt.Errorf("%w: content is longer than %d characters", domain.ErrInvalidInput, maxContentLen)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return 0, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
		}
	}
	return s.Repo.Create(ctx, &domain.Feedback{
		UserID:    userID,
		Content:   content,
		Email:     email,
		CreatedAt: s.Clock.Now(),
	})
}

func (s *Service) List(ctx context.Context) ([]*domain.Feedback, error) {
	return s.Repo.List(ctx)
}
