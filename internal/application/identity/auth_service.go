package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/familyreg/backend/internal/domain/identity"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	ErrTokenInvalid       = shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	ErrTokenMaxRefresh    = shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	ErrAdminExists        = shared.NewDomainError("ALREADY_EXISTS", "An admin with this email already exists")
)

// AuthService signs households and admins in and manages their tokens
type AuthService struct {
	families   registration.FamilyRepository
	admins     identity.AdminRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	families registration.FamilyRepository,
	admins identity.AdminRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		families:   families,
		admins:     admins,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
		now:        time.Now,
	}
}

// HouseholdLogin matches the house number and the primary member's date of birth
func (s *AuthService) HouseholdLogin(ctx context.Context, input HouseholdLoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "household_login",
		telemetry.WithAttribute(telemetry.AttrRole, string(auth.RoleFamily)),
	)
	defer span.End()

	houseNumber := strings.TrimSpace(input.HouseNumber)
	dob := strings.TrimSpace(input.DateOfBirth)
	if houseNumber == "" {
		return nil, ErrInvalidCredentials
	}
	if _, err := time.Parse(registration.DateLayout, dob); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Date of birth must be YYYY-MM-DD")
	}

	family, err := s.families.FindByHouseNumberAndDOB(ctx, houseNumber, dob)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Household login failed", zap.String("house_number", houseNumber), zap.String("ip", input.IP))
			return nil, ErrInvalidCredentials
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	principal := Principal{
		ID:          family.ID,
		Role:        auth.RoleFamily,
		Name:        family.FamilyName,
		HouseNumber: family.HouseNumber,
	}
	pair, err := s.issue(principal)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Household logged in",
		zap.String("family_id", family.ID.String()),
		zap.String("ip", input.IP))
	return loginResult(pair, principal), nil
}

// AdminLogin checks an admin's email and password
func (s *AuthService) AdminLogin(ctx context.Context, input AdminLoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "admin_login",
		telemetry.WithAttribute(telemetry.AttrRole, string(auth.RoleAdmin)),
	)
	defer span.End()

	email := identity.NormalizeEmail(input.Email)
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Admin not found during login", zap.String("email", email), zap.String("ip", input.IP))
			return nil, ErrInvalidCredentials
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !admin.CanLogin() {
		s.logger.Warn("Login attempt for inactive admin", zap.String("email", email))
		return nil, ErrAccountInactive
	}
	if !admin.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("email", email), zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}

	principal := Principal{ID: admin.ID, Role: auth.RoleAdmin, Name: admin.DisplayName}
	pair, err := s.issue(principal)
	if err != nil {
		return nil, err
	}

	admin.RecordLogin(s.now())
	if err := s.admins.Update(ctx, admin); err != nil {
		// The login stands even if the timestamp is lost
		s.logger.Error("Failed to update admin after login", zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))
	return loginResult(pair, principal), nil
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh token
// is revoked so it can be used once.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	pair, claims, err := s.jwtService.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	if err := s.checkSubject(ctx, claims); err != nil {
		return nil, err
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed",
		zap.String("subject", claims.Subject),
		zap.String("role", string(claims.Role)))
	return &RefreshTokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenRemaining); err != nil {
			s.logger.Error("Failed to blacklist access token", zap.Error(err))
			return err
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil && claims.Subject == input.Subject {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Error("Failed to blacklist refresh token", zap.Error(err))
				return err
			}
		}
	}
	s.logger.Info("Logged out", zap.String("subject", input.Subject))
	return nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
// It reports whether an admin was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, input CreateAdminInput) (bool, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateAdmin(ctx, input); err != nil {
		return false, err
	}
	return true, nil
}

// CreateAdmin adds a dashboard operator
func (s *AuthService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*identity.Admin, error) {
	admin, err := identity.NewAdmin(input.Email, input.Password, input.DisplayName, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.admins.FindByEmail(ctx, admin.Email); err == nil {
		return nil, ErrAdminExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("Admin created", zap.String("admin_id", admin.ID.String()), zap.String("email", admin.Email))
	return admin, nil
}

func (s *AuthService) issue(p Principal) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		Subject:     p.ID,
		Role:        p.Role,
		Name:        p.Name,
		HouseNumber: p.HouseNumber,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return pair, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.Revoked(ctx, claims.ID, claims.Subject, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// checkSubject verifies the family or admin behind a token still exists
func (s *AuthService) checkSubject(ctx context.Context, claims *auth.Claims) error {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrTokenInvalid
	}
	switch claims.Role {
	case auth.RoleFamily:
		if _, err := s.families.FindByID(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
	case auth.RoleAdmin:
		admin, err := s.admins.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		if !admin.CanLogin() {
			return ErrAccountInactive
		}
	default:
		return ErrTokenInvalid
	}
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return ErrTokenMaxRefresh
	default:
		return ErrTokenInvalid
	}
}
