package account

import "context"

// Repository is the persistence contract for accounts.
type Repository interface {
	// Create persists a new user and fills in its assigned id.
	// Returns ErrEmailInUse if the email is already registered.
	Create(ctx context.Context, u *User) error

	// GetByID returns the user or ErrUserNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail returns the user matched case-insensitively on email,
	// or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByVerificationToken returns the user holding the token, or
	// ErrUserNotFound.
	GetByVerificationToken(ctx context.Context, token string) (*User, error)

	// GetByResetToken returns the user holding the token, or ErrUserNotFound.
	GetByResetToken(ctx context.Context, token string) (*User, error)

	// Update writes all mutable user columns.
	Update(ctx context.Context, u *User) error

	// Delete removes the user; owned patients and medicines cascade.
	Delete(ctx context.Context, id int64) error
}
