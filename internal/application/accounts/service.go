package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	domain "github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Service implements account use-cases: register, login, profile, admin views.
type Service struct {
	Users  domain.Repository
	Logins domain.LoginRepository
	Tokens TokenIssuer
	Clock  application.Clock
	Log    *zap.Logger
}

type RegisterCommand struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Height   *float64 `json:"height"`
	Weight   *float64 `json:"weight"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a regular user.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (int64, error) {
	username := strings.TrimSpace(cmd.Username)
	password := strings.TrimSpace(cmd.Password)
	if username == "" || password == "" {
		return 0, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if len([]rune(username)) < minUsernameLen {
		return 0, fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidInput, minUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := s.Users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Height:       cmd.Height,
		Weight:       cmd.Weight,
		Role:         domain.RoleUser,
		CreatedAt:    s.Clock.Now(),
	})
	if err != nil {
		return 0, err
	}
	s.Log.Info("user registered", zap.Int64("user_id", id), zap.String("username", username))
	return id, nil
}

// Login checks credentials, records the login and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	u, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// login record gagal tidak boleh menggagalkan login
	if err := s.Logins.Record(ctx, u.ID, s.Clock.Now()); err != nil {
		s.Log.Warn("login record failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, User: u}, nil
}

// Profile returns the user by id.
func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// Refresh issues a new token for an existing user.
func (s *Service) Refresh(ctx context.Context, userID int64) (string, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return "", err
	}
	return s.Tokens.Issue(userID)
}

// ChangePassword replaces the user's password.
func (s *Service) ChangePassword(ctx context.Context, userID int64, password string) error {
	password = strings.TrimSpace(password)
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.Users.Update(ctx, userID, domain.Update{PasswordHash: &hash})
}

type ProfileCommand struct {
	Username *string  `json:"username"`
	Height   *float64 `json:"height"`
	Weight   *float64 `json:"weight"`
}

// UpdateProfile changes username, height or weight.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, cmd ProfileCommand) error {
	upd := domain.Update{Height: cmd.Height, Weight: cmd.Weight}
	if cmd.Username != nil {
		name := strings.TrimSpace(*cmd.Username)
		if len([]rune(name)) < minUsernameLen {
			return fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidInput, minUsernameLen)
		}
		upd.Username = &name
	}
	if upd.Empty() {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	return s.Users.Update(ctx, userID, upd)
}

// EnsureAdmin creates the seed admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.Users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	id, err := s.Users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    s.Clock.Now(),
	})
	if errors.Is(err, domain.ErrUsernameTaken) {
		// instance lain sudah membuatnya duluan
		return nil
	}
	if err != nil {
		return err
	}
	s.Log.Info("admin account created", zap.Int64("user_id", id), zap.String("username", username))
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.Users.List(ctx)
}

func (s *Service) LoginRecords(ctx context.Context) ([]*domain.LoginRecord, error) {
	return s.Logins.ListAll(ctx)
}

func (s *Service) UserLoginRecords(ctx context.Context, userID int64) ([]*domain.LoginRecord, error) {
	return s.Logins.ListByUser(ctx, userID)
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
