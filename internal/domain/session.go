package domain

import (
	"context"
	"time"
)

// SessionModel authenticated-user record held client side for the lifetime
// of a process. A non-nil session always has a pending logout timer owned by
// the session store.
type SessionModel struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TimeRemaining remaining time before the session expires
func (s *SessionModel) TimeRemaining() time.Duration {
	now := time.Now()
	if s.ExpiresAt.Before(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// UserModel full user record returned by the backend
type UserModel struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginForm login credentials, validated locally before any network call
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterForm signup payload
type RegisterForm struct {
	Name     string `json:"name" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SessionStore interface {
	Login(ctx context.Context, form *LoginForm) (*SessionModel, error)
	Register(ctx context.Context, form *RegisterForm) error
	Logout(ctx context.Context)
	RefreshSession(ctx context.Context) error
	FetchUser(ctx context.Context) (*UserModel, error)
	Session() *SessionModel
	User() *UserModel
}
