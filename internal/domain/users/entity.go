package users

import "time"

// Role enum
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User adalah akun aplikasi
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Height       *float64  `json:"height"`
	Weight       *float64  `json:"weight"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may use admin routes.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Update is a partial user update; nil fields are left untouched.
type Update struct {
	Username     *string
	PasswordHash *string
	Height       *float64
	Weight       *float64
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Username == nil && u.PasswordHash == nil && u.Height == nil && u.Weight == nil
}

// LoginRecord is written on every successful login.
type LoginRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	LoginTime time.Time `json:"login_time"`
}
