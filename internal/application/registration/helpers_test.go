package registration_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/infrastructure/cache"
	"github.com/familyreg/backend/internal/infrastructure/event"
	"github.com/familyreg/backend/internal/infrastructure/imaging"
	"github.com/familyreg/backend/internal/infrastructure/storage"
	"github.com/familyreg/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *cache.InMemoryDraftStore
	photos   *storage.MemoryPhotoStorage
	families *testutil.MockFamilyRepository
	events   *testutil.MockEventHandler
	observer *recordingObserver
	wizards  *regapp.WizardService
	submit   *regapp.SubmissionService
}

func newFixture(t *testing.T, cfg registration.WizardConfig) *fixture {
	t.Helper()
	return newFixtureWithStore(t, cfg, nil)
}

// newFixtureWithStore lets wrap stand between the services and the draft store
func newFixtureWithStore(t *testing.T, cfg registration.WizardConfig, wrap func(registration.WizardStore) registration.WizardStore) *fixture {
	t.Helper()
	store := cache.NewInMemoryDraftStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	bus := event.NewInMemoryEventBus(zap.NewNop())
	events := testutil.NewMockEventHandler()
	bus.Subscribe(events)

	f := &fixture{
		store:    store,
		photos:   storage.NewMemoryPhotoStorage("https://cdn.example.org"),
		families: &testutil.MockFamilyRepository{},
		events:   events,
		observer: &recordingObserver{},
	}
	var wizardStore registration.WizardStore = store
	if wrap != nil {
		wizardStore = wrap(store)
	}
	guard := regapp.NewDraftGuard()
	f.wizards = regapp.NewWizardService(wizardStore, imaging.NewCropper(), guard, cfg, time.Hour, zap.NewNop())
	f.submit = regapp.NewSubmissionService(wizardStore, f.families, f.photos, bus, guard, f.observer,
		regapp.SubmissionConfig{DraftTTL: time.Hour, Location: time.FixedZone("IST", 5*3600+1800)}, zap.NewNop())
	return f
}

func alNoor() registration.House {
	return registration.House{
		HouseNumber: "12A",
		HouseName:   "Al-Noor",
		FamilyName:  "Rahman",
		Location:    "Kozhikode",
		RoadName:    "Beach Road",
		Address:     "12 Beach Road",
	}
}

func ali() registration.MemberFields {
	return registration.MemberFields{
		FullName:      "Ali",
		Surname:       "Rahman",
		FatherName:    "Yusuf",
		MotherName:    "Amina",
		AadhaarNumber: "1234 5678 9012",
		DateOfBirth:   "1980-05-01",
		Position:      registration.PositionFather,
	}
}

// reviewDraft drives a modal wizard to the review step
func (f *fixture) reviewDraft(t *testing.T, withPhoto bool) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	w, err := f.wizards.Start(ctx)
	require.NoError(t, err)
	id := w.ID

	_, err = f.wizards.SetHouse(ctx, id, alNoor())
	require.NoError(t, err)
	_, err = f.wizards.Next(ctx, id)
	require.NoError(t, err)
	_, err = f.wizards.AddMember(ctx, id)
	require.NoError(t, err)
	w, err = f.wizards.SaveMemberFromModal(ctx, id, ali())
	require.NoError(t, err)
	_, err = f.wizards.Next(ctx, id)
	require.NoError(t, err)
	_, err = f.wizards.SetPrimaryContact(ctx, id, w.Draft.Members[0].Key, "98765-43210", "")
	require.NoError(t, err)
	if withPhoto {
		_, err = f.wizards.AttachPhoto(ctx, id, regapp.PhotoUpload{Data: pngBytes(t, 800, 600), ContentType: "image/png", Filename: "ali.png"})
		require.NoError(t, err)
		_, err = f.wizards.ConfirmPhoto(ctx, id)
		require.NoError(t, err)
	}
	w, err = f.wizards.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, registration.StepReview, w.Step)
	return id
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingObserver struct {
	outcomes []string
	uploads  []error
}

func (o *recordingObserver) ObserveSubmit(_ context.Context, outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObservePhotoUpload(_ context.Context, _ int64, err error) {
	o.uploads = append(o.uploads, err)
}
