package registration_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWizardService_StartInlineSeedsOneRow(t *testing.T) {
	f := newFixture(t, registration.WizardConfig{RosterMode: registration.RosterModeInline})

	w, err := f.wizards.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registration.StepHouse, w.Step)
	assert.Len(t, w.Draft.Members, 1)

	stored, err := f.store.Get(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, stored.ID)
}

func TestWizardService_HouseStepGuard(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	ctx := context.Background()
	w, err := f.wizards.Start(ctx)
	require.NoError(t, err)

	house := alNoor()
	house.Location = "  "
	_, err = f.wizards.SetHouse(ctx, w.ID, house)
	require.NoError(t, err)

	_, err = f.wizards.Next(ctx, w.ID)
	var verr *registration.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule("location", registration.RuleRequired))

	stored, err := f.store.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, registration.StepHouse, stored.Step)
	assert.Equal(t, "Al-Noor", stored.Draft.House.HouseName)
}

func TestWizardService_ModalFailureIsKept(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	ctx := context.Background()
	w, err := f.wizards.Start(ctx)
	require.NoError(t, err)
	_, err = f.wizards.SetHouse(ctx, w.ID, alNoor())
	require.NoError(t, err)
	_, err = f.wizards.Next(ctx, w.ID)
	require.NoError(t, err)
	_, err = f.wizards.AddMember(ctx, w.ID)
	require.NoError(t, err)

	bad := ali()
	bad.AadhaarNumber = "1234"
	bad.Phone = "12345"
	_, err = f.wizards.SaveMemberFromModal(ctx, w.ID, bad)
	require.Error(t, err)

	stored, err := f.store.Get(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Modal)
	assert.Equal(t, "1234", stored.Modal.Fields.AadhaarNumber)
	assert.Len(t, stored.Modal.Errors, 2)
	assert.Empty(t, stored.Draft.Members)
}

func TestWizardService_NonValidationErrorDoesNotSave(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	ctx := context.Background()
	w, err := f.wizards.Start(ctx)
	require.NoError(t, err)

	_, err = f.wizards.RemoveMember(ctx, w.ID, 0)
	assert.ErrorIs(t, err, registration.ErrWrongStep)

	stored, err := f.store.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, w.UpdatedAt.Equal(stored.UpdatedAt))
}

func TestWizardService_Photo(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	ctx := context.Background()
	id := f.reviewDraft(t, false)
	_, err := f.wizards.GoToStep(ctx, id, registration.StepPrimaryContact)
	require.NoError(t, err)

	t.Run("rejects non image type", func(t *testing.T) {
		_, err := f.wizards.AttachPhoto(ctx, id, regapp.PhotoUpload{Data: []byte("%PDF"), ContentType: "application/pdf"})
		assert.ErrorIs(t, err, registration.ErrInvalidPhotoType)
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		big := make([]byte, registration.MaxPhotoBytes+1)
		_, err := f.wizards.AttachPhoto(ctx, id, regapp.PhotoUpload{Data: big, ContentType: "image/jpeg"})
		assert.ErrorIs(t, err, registration.ErrPhotoTooLarge)
	})

	t.Run("rejects undecodable bytes", func(t *testing.T) {
		_, err := f.wizards.AttachPhoto(ctx, id, regapp.PhotoUpload{Data: []byte("not an image"), ContentType: "image/png"})
		assert.ErrorIs(t, err, registration.ErrInvalidPhotoType)
	})

	t.Run("confirm without preview", func(t *testing.T) {
		_, err := f.wizards.ConfirmPhoto(ctx, id)
		assert.ErrorIs(t, err, registration.ErrNoPhotoPreview)
	})

	t.Run("preview then crop", func(t *testing.T) {
		w, err := f.wizards.AttachPhoto(ctx, id, regapp.PhotoUpload{Data: pngBytes(t, 800, 600), ContentType: "image/png", Filename: "ali.png"})
		require.NoError(t, err)
		require.NotNil(t, w.Preview)
		assert.Equal(t, 800, w.Preview.Width)
		assert.Nil(t, w.Draft.PrimaryContact.Photo)

		w, err = f.wizards.ConfirmPhoto(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, w.Preview)
		require.NotNil(t, w.Draft.PrimaryContact.Photo)
		assert.Equal(t, registration.PhotoWidth, w.Draft.PrimaryContact.Photo.Width)
		assert.Equal(t, registration.PhotoHeight, w.Draft.PrimaryContact.Photo.Height)
	})

	t.Run("discard removes committed photo", func(t *testing.T) {
		w, err := f.wizards.DiscardPhoto(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, w.Draft.PrimaryContact.Photo)
	})
}

func TestWizardService_Reset(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	ctx := context.Background()
	id := f.reviewDraft(t, false)

	_, err := f.wizards.Reset(ctx, id)
	require.ErrorIs(t, err, registration.ErrNotSubmitted)

	f.families.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.submit.Submit(ctx, id, nil)
	require.NoError(t, err)

	w, err := f.wizards.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, registration.StepHouse, w.Step)
	assert.Nil(t, w.SubmittedFamilyID)
	assert.Empty(t, w.Draft.House.HouseName)
}

func TestWizardService_UnknownDraft(t *testing.T) {
	f := newFixture(t, registration.DefaultWizardConfig())
	_, err := f.wizards.Next(context.Background(), uuid.New())
	assert.ErrorIs(t, err, registration.ErrDraftNotFound)
	_, err = f.wizards.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, registration.ErrDraftNotFound))
}

func TestDraftGuard(t *testing.T) {
	g := regapp.NewDraftGuard()
	id := uuid.New()
	ctx := context.Background()

	release, err := g.Acquire(ctx, id)
	require.NoError(t, err)
	assert.True(t, g.InFlight(id))

	_, err = g.Acquire(ctx, id)
	assert.ErrorIs(t, err, registration.ErrSubmissionInFlight)
	_, err = g.Lock(ctx, id)
	assert.ErrorIs(t, err, registration.ErrSubmissionInFlight)

	release()
	release()
	assert.False(t, g.InFlight(id))
	assert.Equal(t, 0, g.Len())

	release, err = g.Lock(ctx, id)
	require.NoError(t, err)
	assert.False(t, g.InFlight(id))
	release()
}

func TestDraftGuard_LockWaitsAndHonoursContext(t *testing.T) {
	g := regapp.NewDraftGuard()
	id := uuid.New()

	release, err := g.Lock(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Lock(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := make(chan struct{})
	go func() {
		r, err := g.Lock(context.Background(), id)
		if err == nil {
			r()
		}
		close(got)
	}()
	assert.Never(t, func() bool {
		select {
		case <-got:
			return true
		default:
			return false
		}
	}, 30*time.Millisecond, 5*time.Millisecond)

	release()
	<-got
	assert.Equal(t, 0, g.Len())
}

// pausingStore blocks the first Get after armed until resume is closed
type pausingStore struct {
	registration.WizardStore
	armed  atomic.Bool
	paused chan struct{}
	resume chan struct{}
}

func (s *pausingStore) Get(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	w, err := s.WizardStore.Get(ctx, id)
	if s.armed.CompareAndSwap(true, false) {
		close(s.paused)
		<-s.resume
	}
	return w, err
}

func TestWizardService_EditRacingSubmitCannotResurrectDraft(t *testing.T) {
	ps := &pausingStore{paused: make(chan struct{}), resume: make(chan struct{})}
	f := newFixtureWithStore(t, registration.DefaultWizardConfig(), func(inner registration.WizardStore) registration.WizardStore {
		ps.WizardStore = inner
		return ps
	})
	id := f.reviewDraft(t, false)
	ctx := context.Background()
	f.families.On("Create", mock.Anything, mock.Anything).Return(nil)

	ps.armed.Store(true)
	editDone := make(chan error, 1)
	go func() {
		_, err := f.wizards.GoToStep(ctx, id, registration.StepHouse)
		editDone <- err
	}()
	<-ps.paused

	submitDone := make(chan error, 1)
	go func() {
		_, err := f.submit.Submit(ctx, id, nil)
		submitDone <- err
	}()
	assert.Never(t, func() bool { return len(submitDone) > 0 }, 30*time.Millisecond, 5*time.Millisecond,
		"submit must wait for the edit holding the draft")

	close(ps.resume)
	require.NoError(t, <-editDone)
	assert.Error(t, <-submitDone, "the draft left review before submit could load it")
	f.families.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	for range 3 {
		_, err := f.wizards.Next(ctx, id)
		require.NoError(t, err)
	}
	_, err := f.submit.Submit(ctx, id, nil)
	require.NoError(t, err)

	_, err = f.wizards.GoToStep(ctx, id, registration.StepHouse)
	assert.Error(t, err)
	w, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, registration.StepSubmitted, w.Step)

	_, err = f.submit.Submit(ctx, id, nil)
	assert.ErrorIs(t, err, registration.ErrAlreadySubmitted)
	f.families.AssertNumberOfCalls(t, "Create", 1)
}
