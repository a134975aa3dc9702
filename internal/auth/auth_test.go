package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendlens/internal/records/memory"
)

const testSecret = "0123456789abcdef0123"

func newTestService(now *time.Time) *Service {
	return NewService(memory.New(), testSecret, time.Hour, nil,
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return *now }),
	)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)

	u, err := s.Signup(ctx, "  alice ", "correct horse")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want alice", u.Username)
	}
	if string(u.PasswordHash) == "correct horse" {
		t.Errorf("password stored in clear")
	}

	token, err := s.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	subject, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if subject != "alice" {
		t.Errorf("subject = %q, want alice", subject)
	}
}

func TestSignupDuplicate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newTestService(&now)

	if _, err := s.Signup(ctx, "alice", "password1"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if _, err := s.Signup(ctx, "alice", "password2"); !errors.Is(err, ErrUserExists) {
		t.Errorf("second Signup() error = %v, want ErrUserExists", err)
	}
}

func TestSignupValidation(t *testing.T) {
	now := time.Now()
	s := newTestService(&now)

	tests := []struct {
		name     string
		username string
		password string
		field    string
	}{
		{"short username", "al", "password1", "username"},
		{"username with pipe", "al|ce", "password1", "username"},
		{"short password", "alice", "pw", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Signup(context.Background(), tt.username, tt.password)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Signup() error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newTestService(&now)
	if _, err := s.Signup(ctx, "alice", "password1"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if _, err := s.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Login(ctx, "bob", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)

	token, err := s.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	now = now.Add(2 * time.Hour)

	if _, err := s.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	s := newTestService(&now)
	other := NewService(memory.New(), "another-secret-value", time.Hour, nil)

	token, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := s.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
	}
	if _, err := s.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(garbage) error = %v, want ErrInvalidToken", err)
	}
}
