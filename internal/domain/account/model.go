package account

import "time"

// User maps to the users table. The password is stored as a bcrypt hash;
// verification and reset tokens are single-use uuids with an expiry.
type User struct {
	ID                      int64      `db:"id" json:"id"`
	Email                   string     `db:"email" json:"email"`
	FullName                *string    `db:"full_name" json:"full_name,omitempty"`
	PasswordHash            string     `db:"password_hash" json:"-"`
	PhoneNumber             *string    `db:"phone_number" json:"phone_number,omitempty"`
	IsEmailVerified         bool       `db:"is_email_verified" json:"is_email_verified"`
	VerificationToken       *string    `db:"verification_token" json:"-"`
	VerificationTokenExpiry *time.Time `db:"verification_token_expiry" json:"-"`
	ResetToken              *string    `db:"reset_token" json:"-"`
	ResetTokenExpiry        *time.Time `db:"reset_token_expiry" json:"-"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// RegisterRequest is the request shape for Register.
type RegisterRequest struct {
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number"`
}

// LoginRequest is the request shape for Login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile is the response shape for account reads.
type Profile struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	FullName        *string `json:"full_name,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	IsEmailVerified bool    `json:"is_email_verified"`
}

// Profile converts the entity to its response shape.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		PhoneNumber:     u.PhoneNumber,
		IsEmailVerified: u.IsEmailVerified,
	}
}
