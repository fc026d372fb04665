package testutil

import (
	"context"
	"time"

	"github.com/familyreg/backend/internal/domain/identity"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockFamilyRepository is a testify mock of registration.FamilyRepository
type MockFamilyRepository struct {
	mock.Mock
}

var _ registration.FamilyRepository = (*MockFamilyRepository)(nil)

func (m *MockFamilyRepository) Create(ctx context.Context, family *registration.Family) error {
	args := m.Called(ctx, family)
	return args.Error(0)
}

func (m *MockFamilyRepository) FindByID(ctx context.Context, id uuid.UUID) (*registration.Family, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Family), args.Error(1)
}

func (m *MockFamilyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]registration.Family, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]registration.Family), args.Get(1).(int64), args.Error(2)
}

func (m *MockFamilyRepository) FindAllMatching(ctx context.Context, filter shared.Filter) ([]registration.Family, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registration.Family), args.Error(1)
}

func (m *MockFamilyRepository) FindByHouseNumberAndDOB(ctx context.Context, houseNumber, dateOfBirth string) (*registration.Family, error) {
	args := m.Called(ctx, houseNumber, dateOfBirth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Family), args.Error(1)
}

func (m *MockFamilyRepository) Update(ctx context.Context, family *registration.Family) error {
	args := m.Called(ctx, family)
	return args.Error(0)
}

func (m *MockFamilyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFamilyRepository) Stats(ctx context.Context) (registration.FamilyStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(registration.FamilyStats), args.Error(1)
}

// MockAdminRepository is a testify mock of identity.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

var _ identity.AdminRepository = (*MockAdminRepository)(nil)

func (m *MockAdminRepository) Create(ctx context.Context, admin *identity.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Admin), args.Error(1)
}

func (m *MockAdminRepository) FindByEmail(ctx context.Context, email string) (*identity.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Admin), args.Error(1)
}

func (m *MockAdminRepository) Update(ctx context.Context, admin *identity.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWizardStore is a testify mock of registration.WizardStore
type MockWizardStore struct {
	mock.Mock
}

var _ registration.WizardStore = (*MockWizardStore)(nil)

func (m *MockWizardStore) Save(ctx context.Context, wizard *registration.Wizard, ttl time.Duration) error {
	args := m.Called(ctx, wizard, ttl)
	return args.Error(0)
}

func (m *MockWizardStore) Get(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Wizard), args.Error(1)
}

func (m *MockWizardStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
