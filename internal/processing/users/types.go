package users

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}
