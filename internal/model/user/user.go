package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken = errors.New("email already in use")
	ErrValidation = errors.New("validation failed")
)

// User is an account that owns chats.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Birthdate    time.Time `json:"birthdate"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists user accounts. Emails are unique.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	FindUser(ctx context.Context, id int64) (User, bool, error)
	FindUserByEmail(ctx context.Context, email string) (User, bool, error)
}
