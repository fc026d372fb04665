package family

import (
	"context"
	"errors"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoPhoto is returned when a family has no stored guardian photo
var ErrNoPhoto = shared.NewDomainError("NO_PHOTO", "This family has no photo")

// ErrFamilyNotFound is returned for unknown family IDs
var ErrFamilyNotFound = shared.NewDomainError("NOT_FOUND", "Family not found")

// ServiceConfig holds admin listing settings
type ServiceConfig struct {
	MaxPageSize   int
	PhotoURLTTL   time.Duration
	PublishEvents bool
}

// DefaultServiceConfig returns the dashboard defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxPageSize:   100,
		PhotoURLTTL:   15 * time.Minute,
		PublishEvents: true,
	}
}

// Service manages submitted families for the dashboard and the household view
type Service struct {
	families  registration.FamilyRepository
	photos    regapp.PhotoStorage
	publisher shared.EventPublisher
	config    ServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a family service. photos and publisher may be nil.
func NewService(
	families registration.FamilyRepository,
	photos regapp.PhotoStorage,
	publisher shared.EventPublisher,
	config ServiceConfig,
	logger *zap.Logger,
) *Service {
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = DefaultServiceConfig().MaxPageSize
	}
	if config.PhotoURLTTL <= 0 {
		config.PhotoURLTTL = DefaultServiceConfig().PhotoURLTTL
	}
	return &Service{
		families:  families,
		photos:    photos,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns one page of families matching the query
func (s *Service) List(ctx context.Context, query ListQuery) (shared.Paginated[FamilyResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "family", "list")
	defer span.End()

	filter := query.Filter(s.config.MaxPageSize)
	families, total, err := s.families.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[FamilyResponse]{}, err
	}
	return shared.NewPaginated(ToFamilyResponses(families), total, filter.Page, filter.PageSize), nil
}

// Get returns one family
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*FamilyResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFamilyResponse(f)
	return &resp, nil
}

// Update applies an admin edit and publishes FamilyUpdated
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateFamilyRequest) (*FamilyResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "family", "update",
		telemetry.WithAttribute(telemetry.AttrFamilyID, id.String()),
	)
	defer span.End()

	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := f.ApplyUpdate(req.toDomain(), s.now()); err != nil {
		return nil, err
	}
	if err := s.families.Update(ctx, f); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, f)

	s.logger.Info("Family updated",
		zap.String("family_id", id.String()),
		zap.Int("version", f.Version))
	resp := ToFamilyResponse(f)
	return &resp, nil
}

// Delete removes a family. Photo cleanup and session revocation run as FamilyDeleted handlers.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "family", "delete",
		telemetry.WithAttribute(telemetry.AttrFamilyID, id.String()),
	)
	defer span.End()

	f, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.families.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrFamilyNotFound
		}
		telemetry.RecordError(span, err)
		return err
	}
	f.MarkDeleted()
	s.publish(ctx, f)

	s.logger.Info("Family deleted",
		zap.String("family_id", id.String()),
		zap.Bool("had_photo", f.HasPhoto()))
	return nil
}

// PhotoURL returns a presigned link to the family's guardian photo
func (s *Service) PhotoURL(ctx context.Context, id uuid.UUID) (*PhotoURLResult, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.HasPhoto() || s.photos == nil {
		return nil, ErrNoPhoto
	}
	url, expires, err := s.photos.PresignDownload(ctx, f.PrimaryMember.PhotoKey, s.config.PhotoURLTTL)
	if err != nil {
		return nil, err
	}
	return &PhotoURLResult{URL: url, ExpiresAt: expires}, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*registration.Family, error) {
	f, err := s.families.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Service) publish(ctx context.Context, f *registration.Family) {
	events := f.GetDomainEvents()
	f.ClearDomainEvents()
	if s.publisher == nil || !s.config.PublishEvents || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish family events",
			zap.String("family_id", f.ID.String()),
			zap.Error(err))
	}
}
