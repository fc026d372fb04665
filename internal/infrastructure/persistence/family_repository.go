package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFamilyRepository implements registration.FamilyRepository using GORM
type GormFamilyRepository struct {
	db *gorm.DB
}

// NewGormFamilyRepository creates a new GormFamilyRepository
func NewGormFamilyRepository(db *gorm.DB) *GormFamilyRepository {
	return &GormFamilyRepository{db: db}
}

var _ registration.FamilyRepository = (*GormFamilyRepository)(nil)

// Create inserts the family row in one statement
func (r *GormFamilyRepository) Create(ctx context.Context, family *registration.Family) error {
	var model models.FamilyModel
	model.FromDomain(family)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a family by its ID
func (r *GormFamilyRepository) FindByID(ctx context.Context, id uuid.UUID) (*registration.Family, error) {
	var model models.FamilyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of families and the number of matches
func (r *GormFamilyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]registration.Family, int64, error) {
	base := r.applySearch(r.db.WithContext(ctx).Model(&models.FamilyModel{}), filter.Search)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []registration.Family{}, 0, nil
	}

	var rows []models.FamilyModel
	query := r.applyOrder(base.Session(&gorm.Session{}), filter)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toFamilies(rows), total, nil
}

// FindAllMatching returns every match in filter order
func (r *GormFamilyRepository) FindAllMatching(ctx context.Context, filter shared.Filter) ([]registration.Family, error) {
	var rows []models.FamilyModel
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.FamilyModel{}), filter.Search)
	if err := r.applyOrder(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toFamilies(rows), nil
}

// FindByHouseNumberAndDOB returns the most recent family whose house number and
// primary contact date of birth match
func (r *GormFamilyRepository) FindByHouseNumberAndDOB(ctx context.Context, houseNumber, dateOfBirth string) (*registration.Family, error) {
	houseNumber = strings.TrimSpace(houseNumber)
	if houseNumber == "" || strings.TrimSpace(dateOfBirth) == "" {
		return nil, shared.ErrNotFound
	}
	var model models.FamilyModel
	err := r.db.WithContext(ctx).
		Where("LOWER(house_number) = ? AND primary_dob = ?", strings.ToLower(houseNumber), strings.TrimSpace(dateOfBirth)).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update saves admin edits with optimistic locking. The aggregate's version must
// already be incremented.
func (r *GormFamilyRepository) Update(ctx context.Context, family *registration.Family) error {
	var model models.FamilyModel
	model.FromDomain(family)

	result := r.db.WithContext(ctx).
		Model(&models.FamilyModel{}).
		Where("id = ? AND version = ?", family.ID, family.Version-1).
		Updates(map[string]any{
			"house_name":       model.HouseName,
			"family_name":      model.FamilyName,
			"location":         model.Location,
			"road_name":        model.RoadName,
			"address":          model.Address,
			"primary_name":     model.PrimaryName,
			"primary_phone":    model.PrimaryPhone,
			"primary_whatsapp": model.PrimaryWhatsApp,
			"search_text":      model.SearchText,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FamilyModel{}).Where("id = ?", family.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// Delete removes a family
func (r *GormFamilyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FamilyModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Stats counts families and the members across them
func (r *GormFamilyRepository) Stats(ctx context.Context) (registration.FamilyStats, error) {
	var row struct {
		TotalFamilies int64
		TotalMembers  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.FamilyModel{}).
		Select("COUNT(*) AS total_families, COALESCE(SUM(total_members), 0) AS total_members").
		Scan(&row).Error
	if err != nil {
		return registration.FamilyStats{}, err
	}
	return registration.FamilyStats{TotalFamilies: row.TotalFamilies, TotalMembers: row.TotalMembers}, nil
}

func (r *GormFamilyRepository) applySearch(query *gorm.DB, search string) *gorm.DB {
	folded := models.FoldSearch(search)
	if folded == "" {
		return query
	}
	return query.Where(`search_text LIKE ? ESCAPE '\'`, "%"+escapeLike(folded)+"%")
}

func (r *GormFamilyRepository) applyOrder(query *gorm.DB, filter shared.Filter) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, FamilySortFields, registration.SortByCreatedAt)
	dir := ValidateSortOrder(filter.OrderDir)
	column := field
	if field != registration.SortByCreatedAt {
		column = fmt.Sprintf("LOWER(%s)", field)
	}
	return query.Order(fmt.Sprintf("%s %s, id ASC", column, dir))
}

func toFamilies(rows []models.FamilyModel) []registration.Family {
	families := make([]registration.Family, len(rows))
	for i := range rows {
		families[i] = *rows[i].ToDomain()
	}
	return families
}
