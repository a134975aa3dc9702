// Package auth handles account signup, password verification and bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"spendlens/internal/log"
	"spendlens/internal/records"
)

var (
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned by Signup for a taken username.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidToken is returned for malformed, badly signed or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

// ValidationError describes a rejected signup payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Service issues and verifies tokens for users kept in a records.UserStore.
type Service struct {
	users       records.UserStore
	secret      []byte
	tokenExpiry time.Duration
	cost        int
	now         func() time.Time
	logger      *log.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an auth service signing HS256 tokens with secret.
func NewService(users records.UserStore, secret string, tokenExpiry time.Duration, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Service{
		users:       users,
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		logger:      logger.WithComponent(log.ComponentAuth),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new user.
func (s *Service) Signup(ctx context.Context, username, password string) (records.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return records.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return records.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := records.User{Username: username, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, records.ErrConflict) {
			s.logger.WarnContext(ctx, "Signup rejected, username taken", log.FieldOwner, username)
			return records.User{}, ErrUserExists
		}
		return records.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldOwner, username, log.FieldOperation, log.OpSignup)
	return u, nil
}

// Login verifies a password and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	u, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			s.logger.WarnContext(ctx, "Login failed, unknown user", log.FieldOwner, username)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login failed, wrong password", log.FieldOwner, username)
		return "", ErrInvalidCredentials
	}

	token, err := s.Issue(u.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.InfoContext(ctx, "User logged in", log.FieldOwner, username, log.FieldOperation, log.OpLogin)
	return token, nil
}

// Issue signs a token whose subject is username.
func (s *Service) Issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token and returns its subject.
func (s *Service) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func validateCredentials(username, password string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < minUsernameLength:
		return &ValidationError{Field: "username", Reason: fmt.Sprintf("must be at least %d characters", minUsernameLength)}
	case n > maxUsernameLength:
		return &ValidationError{Field: "username", Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLength)}
	case strings.ContainsAny(username, " \t\n|"):
		return &ValidationError{Field: "username", Reason: "must not contain spaces or '|'"}
	case len(password) < minPasswordLength:
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	case len(password) > maxPasswordLength:
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", maxPasswordLength)}
	}
	return nil
}
