package domain

import (
	"context"
	"time"
)

// User represents a registered account. Users are immutable after
// registration; there is no profile editing surface.
type User struct {
	ID           int64
	Email        string // Unique, matched exactly (case-sensitive)
	PasswordHash string // Bcrypt digest, never the plaintext
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	// Create persists a new user and fills in ID and CreatedAt.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Delete removes the user; owned applications go with it via the
	// store's FK cascade.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
