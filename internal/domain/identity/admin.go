package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/familyreg/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const minPasswordLength = 8

// Admin is a dashboard operator who signs in with email and password
type Admin struct {
	shared.BaseAggregateRoot
	Email        string
	DisplayName  string
	PasswordHash string
	Active       bool
	LastLoginAt  *time.Time
}

// NewAdmin creates an active admin with a hashed password
func NewAdmin(email, password, displayName string, now time.Time) (*Admin, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = email
	}
	return &Admin{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Email:             email,
		DisplayName:       strings.TrimSpace(displayName),
		PasswordHash:      string(hash),
		Active:            true,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (a *Admin) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// CanLogin reports whether the account may sign in
func (a *Admin) CanLogin() bool {
	return a.Active
}

// RecordLogin stamps a successful sign-in
func (a *Admin) RecordLogin(now time.Time) {
	now = now.UTC()
	a.LastLoginAt = &now
	a.Touch(now)
}

// Deactivate blocks further sign-ins
func (a *Admin) Deactivate(now time.Time) {
	a.Active = false
	a.Touch(now)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return email, nil
}

// NormalizeEmail lowercases and trims an email for lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
