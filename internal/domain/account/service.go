package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/careband/careband/internal/platform/auth"
	"github.com/careband/careband/internal/platform/db"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	bcryptCost           = 12
)

// Service implements the account lifecycle: registration, email
// verification, login, and password reset.
type Service struct {
	repo   Repository
	uow    db.UnitOfWork
	tokens auth.Config
	now    func() time.Time
}

func NewService(repo Repository, uow db.UnitOfWork, tokens auth.Config) *Service {
	if uow == nil {
		uow = db.Passthrough
	}
	return &Service{repo: repo, uow: uow, tokens: tokens, now: time.Now}
}

// Register creates a new unverified account and returns it with the
// verification token set. Delivery of the token (mail, SMS) is the caller's
// concern.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token := uuid.NewString()
	expiry := s.now().Add(verificationTokenTTL)

	user := &User{
		Email:                   email,
		FullName:                req.FullName,
		PasswordHash:            string(hash),
		PhoneNumber:             req.PhoneNumber,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
	}

	err = s.uow(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.repo.GetByVerificationToken(ctx, token)
		if err != nil {
			return ErrInvalidToken
		}
		if user.VerificationTokenExpiry == nil || s.now().After(*user.VerificationTokenExpiry) {
			return ErrInvalidToken
		}

		user.IsEmailVerified = true
		user.VerificationToken = nil
		user.VerificationTokenExpiry = nil
		return s.repo.Update(ctx, user)
	})
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, err := s.tokens.IssueToken(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &TokenResponse{Token: token, ExpiresAt: now.Add(s.tokens.TTL)}, nil
}

// ForgotPassword stamps a reset token on the account and returns it.
// Returns ErrUserNotFound for unknown emails; the handler deliberately hides
// that from the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	var token string
	err := s.uow(ctx, func(ctx context.Context) error {
		user, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		token = uuid.NewString()
		expiry := s.now().Add(resetTokenTTL)
		user.ResetToken = &token
		user.ResetTokenExpiry = &expiry
		return s.repo.Update(ctx, user)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.repo.GetByResetToken(ctx, token)
		if err != nil {
			return ErrInvalidToken
		}
		if user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
			return ErrInvalidToken
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user.PasswordHash = string(hash)
		user.ResetToken = nil
		user.ResetTokenExpiry = nil
		return s.repo.Update(ctx, user)
	})
}

// GetProfile returns the account's public profile.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// DeleteAccount removes the account; its patients and their medicines
// cascade at the storage level.
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	return s.uow(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, userID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, userID)
	})
}
