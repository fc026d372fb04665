package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/familyreg/backend/internal/domain/identity"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/auth"
	"github.com/familyreg/backend/internal/infrastructure/config"
	"github.com/familyreg/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	families  *testutil.MockFamilyRepository
	admins    *testutil.MockAdminRepository
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
	service   *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		families:  &testutil.MockFamilyRepository{},
		admins:    &testutil.MockAdminRepository{},
		blacklist: auth.NewInMemoryTokenBlacklist(),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			RefreshSecret:          "test-refresh-secret-key-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "familyreg-test",
			MaxRefreshCount:        2,
		}),
	}
	f.service = NewAuthService(f.families, f.admins, f.jwt, f.blacklist, zap.NewNop())
	return f
}

func testFamily() *registration.Family {
	return &registration.Family{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(time.Now()),
		House:             registration.House{HouseNumber: "12A", FamilyName: "Rahman"},
		PrimaryMember:     registration.PrimaryMember{Name: "Ali Rahman", DateOfBirth: "1980-05-01"},
	}
}

func testAdmin(t *testing.T) *identity.Admin {
	t.Helper()
	admin, err := identity.NewAdmin("Admin@Masjid.org", "correct horse", "Imam", time.Now())
	require.NoError(t, err)
	return admin
}

func TestHouseholdLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	fam := testFamily()
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "12A", "1980-05-01").Return(fam, nil)

	res, err := f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: " 12A ", DateOfBirth: "1980-05-01"})
	require.NoError(t, err)
	assert.Equal(t, fam.ID, res.Principal.ID)
	assert.Equal(t, auth.RoleFamily, res.Principal.Role)
	assert.Equal(t, "Bearer", res.TokenType)

	claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fam.ID.String(), claims.Subject)
	assert.Equal(t, auth.RoleFamily, claims.Role)
	assert.Equal(t, "12A", claims.HouseNumber)
}

func TestHouseholdLogin_Failures(t *testing.T) {
	f := newAuthFixture(t)
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "99", "1980-05-01").Return(nil, shared.ErrNotFound)
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "13", "1980-05-01").Return(nil, errors.New("db down"))

	_, err := f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: "99", DateOfBirth: "1980-05-01"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: "", DateOfBirth: "1980-05-01"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: "12A", DateOfBirth: "01/05/1980"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: "13", DateOfBirth: "1980-05-01"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLogin(t *testing.T) {
	f := newAuthFixture(t)
	admin := testAdmin(t)
	f.admins.On("FindByEmail", mock.Anything, "admin@masjid.org").Return(admin, nil)
	f.admins.On("FindByEmail", mock.Anything, "nobody@masjid.org").Return(nil, shared.ErrNotFound)
	f.admins.On("Update", mock.Anything, admin).Return(nil).Once()

	t.Run("success", func(t *testing.T) {
		res, err := f.service.AdminLogin(context.Background(), AdminLoginInput{Email: " ADMIN@masjid.org", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, res.Principal.Role)
		assert.Equal(t, "Imam", res.Principal.Name)
		assert.NotNil(t, admin.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.AdminLogin(context.Background(), AdminLoginInput{Email: "admin@masjid.org", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.service.AdminLogin(context.Background(), AdminLoginInput{Email: "nobody@masjid.org", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive", func(t *testing.T) {
		admin.Deactivate(time.Now())
		_, err := f.service.AdminLogin(context.Background(), AdminLoginInput{Email: "admin@masjid.org", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestRefreshToken_RotatesAndRevokesOldToken(t *testing.T) {
	f := newAuthFixture(t)
	fam := testFamily()
	f.families.On("FindByHouseNumberAndDOB", mock.Anything, "12A", "1980-05-01").Return(fam, nil)
	f.families.On("FindByID", mock.Anything, fam.ID).Return(fam, nil)

	login, err := f.service.HouseholdLogin(context.Background(), HouseholdLoginInput{HouseNumber: "12A", DateOfBirth: "1980-05-01"})
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshToken_Errors(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrTokenInvalid)

	fam := testFamily()
	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{Subject: fam.ID, Role: auth.RoleFamily})
	require.NoError(t, err)
	f.families.On("FindByID", mock.Anything, fam.ID).Return(nil, shared.ErrNotFound)

	_, err = f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken_SubjectInvalidated(t *testing.T) {
	f := newAuthFixture(t)
	fam := testFamily()
	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{Subject: fam.ID, Role: auth.RoleFamily})
	require.NoError(t, err)
	require.NoError(t, f.blacklist.InvalidateSubject(context.Background(), fam.ID.String(), time.Hour))

	_, err = f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)
	f.families.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	fam := testFamily()
	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{Subject: fam.ID, Role: auth.RoleFamily})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := f.jwt.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	err = f.service.Logout(context.Background(), LogoutInput{
		Subject:        access.Subject,
		TokenJTI:       access.ID,
		TokenRemaining: access.GetRemainingTTL(),
		RefreshToken:   pair.RefreshToken,
	})
	require.NoError(t, err)

	for _, jti := range []string{access.ID, refresh.ID} {
		revoked, err := f.blacklist.IsBlacklisted(context.Background(), jti)
		require.NoError(t, err)
		assert.True(t, revoked)
	}
}

func TestEnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)
	input := CreateAdminInput{Email: "admin@masjid.org", Password: "long enough", DisplayName: "Office"}

	f.admins.On("Count", mock.Anything).Return(int64(1), nil).Once()
	created, err := f.service.EnsureAdmin(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, created)
	f.admins.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	f.admins.On("Count", mock.Anything).Return(int64(0), nil).Once()
	f.admins.On("FindByEmail", mock.Anything, "admin@masjid.org").Return(nil, shared.ErrNotFound).Once()
	f.admins.On("Create", mock.Anything, mock.MatchedBy(func(a *identity.Admin) bool {
		return a.Email == "admin@masjid.org" && a.VerifyPassword("long enough")
	})).Return(nil).Once()
	created, err = f.service.EnsureAdmin(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateAdmin_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	existing := testAdmin(t)
	f.admins.On("FindByEmail", mock.Anything, "admin@masjid.org").Return(existing, nil)

	_, err := f.service.CreateAdmin(context.Background(), CreateAdminInput{Email: "admin@masjid.org", Password: "long enough"})
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestCreateAdmin_ShortPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.service.CreateAdmin(context.Background(), CreateAdminInput{Email: "admin@masjid.org", Password: "short"})
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_PASSWORD", derr.Code)
}
