package users

import (
	"context"
	"errors"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type UserRepository interface {
	Insert(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// SearchIDsByUsername matches usernames case-insensitively by substring.
	SearchIDsByUsername(ctx context.Context, query string, limit int) ([]string, error)
}

type TokenService interface {
	Sign(userID, username string) (string, error)
	Verify(token string) (auth.Claims, error)
}
