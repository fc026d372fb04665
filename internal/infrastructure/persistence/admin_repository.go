package persistence

import (
	"context"
	"errors"

	"github.com/familyreg/backend/internal/domain/identity"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdminRepository implements identity.AdminRepository using GORM
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository creates a new GormAdminRepository
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

var _ identity.AdminRepository = (*GormAdminRepository)(nil)

// Create inserts an admin. A taken email returns shared.ErrAlreadyExists.
func (r *GormAdminRepository) Create(ctx context.Context, admin *identity.Admin) error {
	var model models.AdminModel
	model.FromDomain(admin)

	var existing int64
	if err := r.db.WithContext(ctx).Model(&models.AdminModel{}).Where("email = ?", model.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return shared.ErrAlreadyExists
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds an admin by ID
func (r *GormAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Admin, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds an admin by normalized email
func (r *GormAdminRepository) FindByEmail(ctx context.Context, email string) (*identity.Admin, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormAdminRepository) findOne(ctx context.Context, cond string, arg any) (*identity.Admin, error) {
	var model models.AdminModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update saves mutable admin fields
func (r *GormAdminRepository) Update(ctx context.Context, admin *identity.Admin) error {
	result := r.db.WithContext(ctx).
		Model(&models.AdminModel{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{
			"display_name":  admin.DisplayName,
			"password_hash": admin.PasswordHash,
			"active":        admin.Active,
			"last_login_at": admin.LastLoginAt,
			"updated_at":    admin.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of admins
func (r *GormAdminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AdminModel{}).Count(&count).Error
	return count, err
}
