package users

import "context"

// UserRepo is the credential store. Implementations return an error wrapping
// errors.ErrNotFound for unknown users and errors.ErrConflict for a duplicate email.
type UserRepo interface {
	// Create assigns the user an ID and timestamps
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
