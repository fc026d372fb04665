package identity

import (
	"time"

	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// HouseholdLoginInput contains the input for a household login
type HouseholdLoginInput struct {
	HouseNumber string
	DateOfBirth string // YYYY-MM-DD of the primary member
	IP          string
}

// AdminLoginInput contains the input for a dashboard login
type AdminLoginInput struct {
	Email    string
	Password string
	IP       string
}

// Principal describes who a token was issued to
type Principal struct {
	ID          uuid.UUID
	Role        auth.Role
	Name        string
	HouseNumber string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	Principal             Principal
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for logout. RefreshToken is optional.
type LogoutInput struct {
	Subject        string
	TokenJTI       string
	TokenRemaining time.Duration
	RefreshToken   string
}

// CreateAdminInput contains the input for adding a dashboard operator
type CreateAdminInput struct {
	Email       string
	Password    string
	DisplayName string
}

func loginResult(pair *auth.TokenPair, p Principal) *LoginResult {
	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		Principal:             p,
	}
}
