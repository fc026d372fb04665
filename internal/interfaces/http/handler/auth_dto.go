package handler

import (
	"time"

	"github.com/google/uuid"
)

// =====================
// Auth Request DTOs
// =====================

// HouseholdLoginRequest signs a family in with its house number and the
// primary member's date of birth
type HouseholdLoginRequest struct {
	HouseNumber string `json:"house_number" binding:"required,max=50"`
	DateOfBirth string `json:"date_of_birth" binding:"required,isodate"`
}

// AdminLoginRequest represents the request body for a dashboard login
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// PrincipalResponse describes who signed in
type PrincipalResponse struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role" example:"family"`
	Name        string    `json:"name"`
	HouseNumber string    `json:"house_number,omitempty"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token     TokenResponse     `json:"token"`
	Principal PrincipalResponse `json:"principal"`
}

// RefreshTokenResponse represents the response body for successful token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}
