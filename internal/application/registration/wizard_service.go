package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDraftTTL is how long an idle draft is kept
const DefaultDraftTTL = 2 * time.Hour

// PhotoUpload is a raw image posted for the guardian photo
type PhotoUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// WizardService applies user events to stored wizards
type WizardService struct {
	store   registration.WizardStore
	cropper PhotoCropper
	guard   *DraftGuard
	config  registration.WizardConfig
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewWizardService creates a wizard service. guard must be shared with the SubmissionService.
func NewWizardService(
	store registration.WizardStore,
	cropper PhotoCropper,
	guard *DraftGuard,
	config registration.WizardConfig,
	ttl time.Duration,
	logger *zap.Logger,
) *WizardService {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &WizardService{
		store:   store,
		cropper: cropper,
		guard:   guard,
		config:  config,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Config returns the wizard variant new drafts start with
func (s *WizardService) Config() registration.WizardConfig {
	return s.config
}

// Start creates an empty draft on the house step
func (s *WizardService) Start(ctx context.Context) (*registration.Wizard, error) {
	w := registration.NewWizard(s.config, s.now())
	if err := s.store.Save(ctx, w, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save new draft: %w", err)
	}
	s.logger.Info("Registration draft started",
		zap.String("draft_id", w.ID.String()),
		zap.String("roster_mode", string(s.config.RosterMode)),
	)
	return w, nil
}

// Get loads a draft and refreshes its idle timer. While a submission holds the
// draft the stored copy is returned as is.
func (s *WizardService) Get(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	release, err := s.guard.Lock(ctx, id)
	if errors.Is(err, registration.ErrSubmissionInFlight) {
		return s.store.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	defer release()

	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, w, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to refresh draft: %w", err)
	}
	return w, nil
}

// mutate loads the draft, applies fn and saves the result. Validation failures
// are saved too so the member editor keeps its fields and errors; any other
// failure leaves the stored draft untouched.
func (s *WizardService) mutate(ctx context.Context, id uuid.UUID, fn func(w *registration.Wizard) error) (*registration.Wizard, error) {
	release, err := s.guard.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	opErr := fn(w)
	var verr *registration.ValidationError
	if opErr != nil && !errors.As(opErr, &verr) {
		return w, opErr
	}

	w.Touch(s.now())
	if err := s.store.Save(ctx, w, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return w, opErr
}

// SetHouse replaces the house fields
func (s *WizardService) SetHouse(ctx context.Context, id uuid.UUID, house registration.House) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.SetHouse(house)
	})
}

// Next advances one step when the current step validates
func (s *WizardService) Next(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.Next()
	})
}

// Back returns to the previous step
func (s *WizardService) Back(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.Back()
	})
}

// GoToStep jumps from review to an editable step
func (s *WizardService) GoToStep(ctx context.Context, id uuid.UUID, step registration.Step) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.GoToStep(step)
	})
}

// AddMember appends an inline row or opens the member editor
func (s *WizardService) AddMember(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.AddMember()
	})
}

// EditMember opens the member editor on index
func (s *WizardService) EditMember(ctx context.Context, id uuid.UUID, index int) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.EditMember(index)
	})
}

// UpdateInlineMember overwrites an inline row
func (s *WizardService) UpdateInlineMember(ctx context.Context, id uuid.UUID, index int, fields registration.MemberFields) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.UpdateInlineMember(index, fields)
	})
}

// RemoveMember deletes the member at index
func (s *WizardService) RemoveMember(ctx context.Context, id uuid.UUID, index int) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.RemoveMember(index)
	})
}

// SaveMemberFromModal validates and stores the member editor fields
func (s *WizardService) SaveMemberFromModal(ctx context.Context, id uuid.UUID, fields registration.MemberFields) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.SaveMemberFromModal(fields)
	})
}

// CancelModal closes the member editor
func (s *WizardService) CancelModal(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.CancelModal()
	})
}

// SetPrimaryContact records the selected member and numbers
func (s *WizardService) SetPrimaryContact(ctx context.Context, id uuid.UUID, memberKey, phone, whatsapp string) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.SetPrimaryContact(memberKey, phone, whatsapp)
	})
}

// AttachPhoto checks an upload and holds it as the crop preview.
// Type and size are checked before the bytes are decoded.
func (s *WizardService) AttachPhoto(ctx context.Context, id uuid.UUID, upload PhotoUpload) (*registration.Wizard, error) {
	if err := registration.ValidatePhotoUpload(upload.ContentType, int64(len(upload.Data))); err != nil {
		return nil, err
	}
	info, err := s.cropper.Inspect(upload.Data)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.AttachPhotoPreview(registration.PhotoPreview{
			Data:        upload.Data,
			ContentType: upload.ContentType,
			Filename:    upload.Filename,
			Width:       info.Width,
			Height:      info.Height,
		})
	})
}

// ConfirmPhoto crops the preview to 300x400 and commits it to the draft
func (s *WizardService) ConfirmPhoto(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		var cropped registration.CroppedPhoto
		if w.Preview != nil {
			var err error
			if cropped, err = s.cropper.Crop(w.Preview.Data); err != nil {
				return err
			}
		}
		return w.ConfirmPhoto(cropped)
	})
}

// DiscardPhoto drops the preview, or the committed photo when there is no preview
func (s *WizardService) DiscardPhoto(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		return w.DiscardPhoto()
	})
}

// Reset starts a submitted wizard over on the house step
func (s *WizardService) Reset(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	return s.mutate(ctx, id, func(w *registration.Wizard) error {
		if w.Step != registration.StepSubmitted {
			return registration.ErrNotSubmitted
		}
		w.Reset()
		return nil
	})
}
