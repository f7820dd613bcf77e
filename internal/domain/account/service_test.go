package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/careband/careband/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[int64]*User)}
}

func cloneUser(u *User) *User {
	cu := *u
	return &cu
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, other := range m.users {
		if strings.EqualFold(other.Email, u.Email) {
			return ErrEmailInUse
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepo) GetByVerificationToken(_ context.Context, token string) (*User, error) {
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepo) GetByResetToken(_ context.Context, token string) (*User, error) {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// -- Tests --

func testTokens() auth.Config {
	return auth.Config{
		Secret: []byte("test-secret"),
		Issuer: "careband-test",
		TTL:    time.Hour,
	}
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, nil, testTokens()), repo
}

func register(t *testing.T, svc *Service, email, password string) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()

	user := register(t, svc, "maria@example.com", "correct-horse")

	if user.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("expected the password to be hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")) != nil {
		t.Error("expected the hash to verify against the password")
	}
	if user.VerificationToken == nil || *user.VerificationToken == "" {
		t.Error("expected a verification token")
	}
	if user.IsEmailVerified {
		t.Error("expected a fresh account to be unverified")
	}
}

func TestRegister_EmailRequired(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &RegisterRequest{Email: "  ", Password: "correct-horse"})
	if err == nil {
		t.Error("expected error for blank email")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &RegisterRequest{Email: "a@example.com", Password: "short"})
	if err == nil {
		t.Error("expected error for short password")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "MARIA@example.com",
		Password: "other-password",
	})
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, repo := newTestService()

	user := register(t, svc, "maria@example.com", "correct-horse")

	if err := svc.VerifyEmail(context.Background(), *user.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}

	stored := repo.users[user.ID]
	if !stored.IsEmailVerified {
		t.Error("expected the account to be marked verified")
	}
	if stored.VerificationToken != nil {
		t.Error("expected the token to be consumed")
	}
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	svc, _ := newTestService()

	err := svc.VerifyEmail(context.Background(), "nope")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	svc, _ := newTestService()

	user := register(t, svc, "maria@example.com", "correct-horse")

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	err := svc.VerifyEmail(context.Background(), *user.VerificationToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an expired token, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expected the expiry in the future")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@example.com",
		Password: "wrong-horse",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")

	token, err := svc.ForgotPassword(context.Background(), "maria@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(context.Background(), token, "fresh-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@example.com",
		Password: "correct-horse",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("expected the old password to stop working")
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@example.com",
		Password: "fresh-password",
	}); err != nil {
		t.Errorf("expected the new password to work, got %v", err)
	}
}

func TestResetPassword_TokenIsSingleUse(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")
	token, _ := svc.ForgotPassword(context.Background(), "maria@example.com")

	if err := svc.ResetPassword(context.Background(), token, "fresh-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), token, "another-password"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "maria@example.com", "correct-horse")
	token, _ := svc.ForgotPassword(context.Background(), "maria@example.com")

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if err := svc.ResetPassword(context.Background(), token, "fresh-password"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	svc, _ := newTestService()

	user := register(t, svc, "maria@example.com", "correct-horse")

	profile, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Email != "maria@example.com" {
		t.Errorf("expected email in the profile, got %s", profile.Email)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, _ := newTestService()

	user := register(t, svc, "maria@example.com", "correct-horse")

	if err := svc.DeleteAccount(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}
