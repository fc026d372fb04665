package identity

import (
	"context"

	"github.com/google/uuid"
)

// AdminRepository stores dashboard operators
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	FindByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	Update(ctx context.Context, admin *Admin) error
	Count(ctx context.Context) (int64, error)
}
