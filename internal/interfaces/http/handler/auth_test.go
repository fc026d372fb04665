package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/familyreg/backend/internal/application/identity"
	domainidentity "github.com/familyreg/backend/internal/domain/identity"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/config"
	"github.com/familyreg/backend/internal/interfaces/http/dto"
	"github.com/familyreg/backend/internal/interfaces/http/middleware"
	"github.com/familyreg/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		RefreshSecret:          "test-refresh-secret-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "familyreg-test",
		MaxRefreshCount:        5,
	}
}

type authFixture struct {
	engine    *gin.Engine
	families  *testutil.MockFamilyRepository
	admins    *testutil.MockAdminRepository
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		families:  &testutil.MockFamilyRepository{},
		admins:    &testutil.MockAdminRepository{},
		blacklist: auth.NewInMemoryTokenBlacklist(),
		jwt:       auth.NewJWTService(testJWTConfig()),
	}
	service := identity.NewAuthService(f.families, f.admins, f.jwt, f.blacklist, zap.NewNop())
	h := NewAuthHandler(service)

	f.engine = gin.New()
	g := f.engine.Group("/auth")
	g.POST("/household/login", h.HouseholdLogin)
	g.POST("/admin/login", h.AdminLogin)
	g.POST("/refresh", h.RefreshToken)
	g.POST("/logout", middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     f.jwt,
		TokenBlacklist: f.blacklist,
		Logger:         zap.NewNop(),
	}), h.Logout)
	return f
}

func household() *registration.Family {
	return &registration.Family{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(time.Now()),
		House:             registration.House{HouseNumber: "12A", FamilyName: "Rahman"},
		PrimaryMember:     registration.PrimaryMember{Name: "Ali Rahman", DateOfBirth: "1980-05-01"},
	}
}

func (f *authFixture) login(t *testing.T, fam *registration.Family) LoginResponse {
	t.Helper()
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "12A", "1980-05-01").Return(fam, nil).Maybe()
	w := testutil.Do(t, f.engine, http.MethodPost, "/auth/household/login", HouseholdLoginRequest{
		HouseNumber: "12A",
		DateOfBirth: "1980-05-01",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.DecodeData[LoginResponse](t, w)
}

func TestAuthHandler_HouseholdLogin(t *testing.T) {
	f := newAuthFixture(t)
	fam := household()

	resp := f.login(t, fam)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, fam.ID, resp.Principal.ID)
	assert.Equal(t, string(auth.RoleFamily), resp.Principal.Role)
	assert.Equal(t, "12A", resp.Principal.HouseNumber)

	claims, err := f.jwt.ValidateAccessToken(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fam.ID.String(), claims.Subject)
}

func TestAuthHandler_HouseholdLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "99", "1980-05-01").Return(nil, shared.ErrNotFound)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown house", HouseholdLoginRequest{HouseNumber: "99", DateOfBirth: "1980-05-01"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"missing house number", map[string]string{"date_of_birth": "1980-05-01"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"date in the wrong format", HouseholdLoginRequest{HouseNumber: "12A", DateOfBirth: "01/05/1980"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(t, f.engine, http.MethodPost, "/auth/household/login", tt.body, nil)
			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	f := newAuthFixture(t)
	admin, err := domainidentity.NewAdmin("imam@masjid.org", "correct horse", "Imam", time.Now())
	require.NoError(t, err)
	f.admins.On("FindByEmail", mock.Anything, "imam@masjid.org").Return(admin, nil)
	f.admins.On("Update", mock.Anything, admin).Return(nil)

	w := testutil.Do(t, f.engine, http.MethodPost, "/auth/admin/login", AdminLoginRequest{
		Email:    "imam@masjid.org",
		Password: "correct horse",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeData[LoginResponse](t, w)
	assert.Equal(t, string(auth.RoleAdmin), resp.Principal.Role)
	assert.Equal(t, "Imam", resp.Principal.Name)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/admin/login", AdminLoginRequest{
		Email:    "imam@masjid.org",
		Password: "wrong password",
	}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/admin/login", AdminLoginRequest{
		Email:    "not-an-email",
		Password: "correct horse",
	}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestAuthHandler_RefreshTokenIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	fam := household()
	f.families.On("FindByID", mock.Anything, fam.ID).Return(fam, nil)
	login := f.login(t, fam)

	w := testutil.Do(t, f.engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := testutil.DecodeData[RefreshTokenResponse](t, w)
	assert.NotEmpty(t, refreshed.Token.AccessToken)
	assert.NotEqual(t, login.Token.RefreshToken, refreshed.Token.RefreshToken)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAuthHandler_RefreshTokenFailures(t *testing.T) {
	f := newAuthFixture(t)

	w := testutil.Do(t, f.engine, http.MethodPost, "/auth/refresh", map[string]string{}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenInvalid)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	fam := household()
	f.families.On("FindByID", mock.Anything, fam.ID).Return(fam, nil)
	login := f.login(t, fam)
	bearer := map[string]string{"Authorization": "Bearer " + login.Token.AccessToken}

	w := testutil.Do(t, f.engine, http.MethodPost, "/auth/logout", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenInvalid)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/logout", LogoutRequest{RefreshToken: login.Token.RefreshToken}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Logged out successfully", testutil.DecodeData[MessageData](t, w).Message)

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/logout", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "the access token is revoked")

	w = testutil.Do(t, f.engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}
