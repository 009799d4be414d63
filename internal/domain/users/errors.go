package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminRequired      = errors.New("admin role required")
	ErrInvalidInput       = errors.New("invalid user input")
)
