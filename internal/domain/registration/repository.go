package registration

import (
	"context"
	"time"

	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Sortable family columns
const (
	SortByFamilyName = "family_name"
	SortByLocation   = "location"
	SortByCreatedAt  = "created_at"
)

// FamilyStats summarizes every stored family
type FamilyStats struct {
	TotalFamilies int64
	TotalMembers  int64
}

// FamilyRepository is the document store for submitted families
type FamilyRepository interface {
	// Create inserts a new family as a single write
	Create(ctx context.Context, family *Family) error
	FindByID(ctx context.Context, id uuid.UUID) (*Family, error)
	// FindAll returns one page of families matching filter.Search, plus the total match count
	FindAll(ctx context.Context, filter shared.Filter) ([]Family, int64, error)
	// FindAllMatching returns every family matching filter.Search in filter order, ignoring paging
	FindAllMatching(ctx context.Context, filter shared.Filter) ([]Family, error)
	// FindByHouseNumberAndDOB matches a household login
	FindByHouseNumberAndDOB(ctx context.Context, houseNumber, dateOfBirth string) (*Family, error)
	// Update saves admin edits. It fails with ErrConcurrencyConflict when the stored version moved.
	Update(ctx context.Context, family *Family) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (FamilyStats, error)
}

// WizardStore keeps in-progress wizards between requests
type WizardStore interface {
	Save(ctx context.Context, wizard *Wizard, ttl time.Duration) error
	// Get returns ErrDraftNotFound for unknown or expired wizards
	Get(ctx context.Context, id uuid.UUID) (*Wizard, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
