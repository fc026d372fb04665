package registration

import (
	"context"
	"errors"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoKeyPrefix is the storage folder for guardian photos
const PhotoKeyPrefix = "guardian-photos/"

// SubmissionConfig tunes the submission assembler
type SubmissionConfig struct {
	DraftTTL time.Duration
	// Timeout bounds the upload and the store write together. Zero means no limit.
	Timeout time.Duration
	// Location renders the human readable registration date
	Location *time.Location
}

// SubmitResult is a stored registration and the wizard that produced it
type SubmitResult struct {
	Family *registration.Family
	Wizard *registration.Wizard
}

// SubmissionService turns a reviewed draft into exactly one stored family
type SubmissionService struct {
	store     registration.WizardStore
	families  registration.FamilyRepository
	photos    PhotoStorage
	publisher shared.EventPublisher
	guard     *DraftGuard
	observer  SubmitObserver
	config    SubmissionConfig
	logger    *zap.Logger
	now       func() time.Time
	photoKey  func() string
}

// NewSubmissionService creates the submission service. photos may be nil when photo capture is disabled.
func NewSubmissionService(
	store registration.WizardStore,
	families registration.FamilyRepository,
	photos PhotoStorage,
	publisher shared.EventPublisher,
	guard *DraftGuard,
	observer SubmitObserver,
	config SubmissionConfig,
	logger *zap.Logger,
) *SubmissionService {
	if config.DraftTTL <= 0 {
		config.DraftTTL = DefaultDraftTTL
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &SubmissionService{
		store:     store,
		families:  families,
		photos:    photos,
		publisher: publisher,
		guard:     guard,
		observer:  observer,
		config:    config,
		logger:    logger,
		now:       time.Now,
		photoKey:  func() string { return PhotoKeyPrefix + uuid.NewString() + ".jpg" },
	}
}

// Submit uploads a pending photo, then writes the family with a single create.
// Any failure leaves the draft as it was so the caller can retry; a photo that
// was already stored is reused by the retry. progress may be nil.
func (s *SubmissionService) Submit(ctx context.Context, draftID uuid.UUID, progress SubmitProgress) (*SubmitResult, error) {
	release, err := s.guard.Acquire(ctx, draftID)
	if errors.Is(err, registration.ErrSubmissionInFlight) {
		s.observer.ObserveSubmit(ctx, OutcomeInFlight, 0)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartServiceSpan(ctx, "submission", "submit",
		telemetry.WithAttribute(telemetry.AttrDraftID, draftID.String()),
	)
	defer span.End()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	started := s.now()
	logger := s.logger.With(zap.String("draft_id", draftID.String()))

	w, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := w.ReadyToSubmit(); err != nil {
		s.observer.ObserveSubmit(ctx, OutcomeInvalid, s.now().Sub(started))
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrMembersCount, w.Draft.TotalMembers())

	if w.NeedsPhotoUpload() {
		uploaded, err := s.uploadPhoto(ctx, w.Draft.PrimaryContact.Photo, progress)
		if err != nil {
			telemetry.RecordError(span, err)
			logger.Warn("Guardian photo upload failed", zap.Error(err))
			s.observer.ObserveSubmit(ctx, OutcomeUploadFailed, s.now().Sub(started))
			return nil, registration.ErrPhotoUploadFailed
		}
		w.RecordPhotoUpload(*uploaded)
		if err := s.store.Save(ctx, w, s.config.DraftTTL); err != nil {
			logger.Warn("Failed to remember uploaded photo on draft", zap.Error(err))
		}
	}
	if progress != nil {
		progress(100)
	}

	family, err := registration.AssembleFamily(w.Draft, w.UploadedPhoto, s.now().In(s.config.Location))
	if err != nil {
		s.observer.ObserveSubmit(ctx, OutcomeInvalid, s.now().Sub(started))
		return nil, err
	}

	if err := s.families.Create(ctx, family); err != nil {
		telemetry.RecordError(span, err)
		logger.Error("Failed to store family", zap.Error(err))
		s.observer.ObserveSubmit(ctx, OutcomeStoreFailed, s.now().Sub(started))
		return nil, registration.ErrSubmissionFailed
	}

	events := family.GetDomainEvents()
	family.ClearDomainEvents()

	w.MarkSubmitted(family.ID)
	w.Touch(s.now())
	if err := s.store.Save(ctx, w, s.config.DraftTTL); err != nil {
		logger.Warn("Failed to save submitted draft", zap.Error(err))
	}

	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			logger.Error("Failed to publish family events", zap.Error(err))
		}
	}

	telemetry.SetAttributes(span, telemetry.AttrFamilyID, family.ID.String())
	s.observer.ObserveSubmit(ctx, OutcomeSubmitted, s.now().Sub(started))
	logger.Info("Family registered",
		zap.String("family_id", family.ID.String()),
		zap.Int("total_members", family.TotalMembers),
		zap.Bool("has_photo", family.HasPhoto()),
	)
	return &SubmitResult{Family: family, Wizard: w}, nil
}

func (s *SubmissionService) uploadPhoto(ctx context.Context, photo *registration.CroppedPhoto, progress SubmitProgress) (*registration.UploadedPhoto, error) {
	if s.photos == nil {
		return nil, errors.New("photo storage is not configured")
	}

	key := s.photoKey()
	size := int64(len(photo.Data))
	if progress != nil {
		progress(0)
	}
	last := 0
	url, err := s.photos.Upload(ctx, key, photo.Data, photo.ContentType, func(sent, total int64) {
		if progress == nil || total <= 0 {
			return
		}
		if pct := min(int(sent*100/total), 99); pct > last {
			last = pct
			progress(pct)
		}
	})
	s.observer.ObservePhotoUpload(ctx, size, err)
	if err != nil {
		return nil, err
	}
	return &registration.UploadedPhoto{Key: key, URL: url}, nil
}
