package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type familySeed struct {
	houseNumber string
	houseName   string
	familyName  string
	location    string
	fullName    string
	surname     string
	dob         string
	members     int
	createdAt   time.Time
}

func buildFamily(t *testing.T, s familySeed) *registration.Family {
	t.Helper()
	if s.members == 0 {
		s.members = 1
	}
	if s.dob == "" {
		s.dob = "1980-05-01"
	}
	members := make([]registration.Member, s.members)
	for i := range members {
		members[i] = registration.Member{
			Key: uuid.NewString(),
			MemberFields: registration.MemberFields{
				FullName:      s.fullName,
				Surname:       s.surname,
				FatherName:    "Yusuf",
				MotherName:    "Amina",
				AadhaarNumber: "123412341234",
				DateOfBirth:   s.dob,
				Position:      registration.PositionFather,
			},
		}
	}
	draft := registration.RegistrationDraft{
		House: registration.House{
			HouseNumber: s.houseNumber,
			HouseName:   s.houseName,
			FamilyName:  s.familyName,
			Location:    s.location,
			RoadName:    "Main Road",
			Address:     "Near Masjid",
		},
		Members:        members,
		PrimaryContact: registration.PrimaryContact{MemberKey: members[0].Key, Phone: "9876543210"},
	}
	f, err := registration.AssembleFamily(draft, nil, s.createdAt)
	require.NoError(t, err)
	return f
}

func seedFamilies(t *testing.T, repo *GormFamilyRepository) []*registration.Family {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seeds := []familySeed{
		{houseNumber: "12A", houseName: "Al-Noor", familyName: "Rahman", location: "Kozhikode", fullName: "Ali", surname: "Rahman", members: 3, createdAt: base},
		{houseNumber: "7", houseName: "Baitul Aman", familyName: "Ansari", location: "Malappuram", fullName: "Salim", surname: "Ansari", members: 2, createdAt: base.Add(time.Hour)},
		{houseNumber: "31", houseName: "Darussalam", familyName: "Koya", location: "Kozhikode", fullName: "Hamza", surname: "Koya", members: 5, createdAt: base.Add(2 * time.Hour)},
	}
	out := make([]*registration.Family, 0, len(seeds))
	for _, s := range seeds {
		f := buildFamily(t, s)
		require.NoError(t, repo.Create(context.Background(), f))
		out = append(out, f)
	}
	return out
}

func familyNames(fs []registration.Family) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.FamilyName
	}
	return names
}

func TestGormFamilyRepository_CreateAndFind(t *testing.T) {
	repo := NewGormFamilyRepository(setupSQLiteDB(t))
	ctx := context.Background()
	f := buildFamily(t, familySeed{houseNumber: "12A", houseName: "Al-Noor", familyName: "Rahman", location: "Kozhikode", fullName: "Ali", surname: "Rahman", members: 2, createdAt: time.Now()})

	require.NoError(t, repo.Create(ctx, f))

	got, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Al-Noor", got.HouseName)
	assert.Equal(t, 2, got.TotalMembers)
	require.Len(t, got.Members, 2)
	assert.Equal(t, f.Members[1].Key, got.Members[1].Key)
	assert.Equal(t, "Ali Rahman", got.PrimaryMember.Name)
	assert.Equal(t, "9876543210", got.PrimaryMember.Phone)
	assert.Equal(t, 1, got.Version)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFamilyRepository_FindAll(t *testing.T) {
	repo := NewGormFamilyRepository(setupSQLiteDB(t))
	ctx := context.Background()
	seedFamilies(t, repo)

	t.Run("default order is newest first", func(t *testing.T) {
		items, total, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, []string{"Koya", "Ansari", "Rahman"}, familyNames(items))
	})

	t.Run("sort by family name ascending", func(t *testing.T) {
		f := shared.Filter{Page: 1, PageSize: 10, OrderBy: "family_name", OrderDir: "asc"}
		items, _, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ansari", "Koya", "Rahman"}, familyNames(items))
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		f := shared.Filter{Page: 1, PageSize: 10, OrderBy: "primary_aadhaar", OrderDir: "asc"}
		items, _, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rahman", "Ansari", "Koya"}, familyNames(items))
	})

	t.Run("search is case-insensitive across house, family, location and contact", func(t *testing.T) {
		cases := map[string][]string{
			"kozhikode": {"Rahman", "Koya"},
			"AL-NOOR":   {"Rahman"},
			"salim":     {"Ansari"},
			"koya":      {"Koya"},
			"nobody":    {},
			"100%":      {},
		}
		for term, want := range cases {
			f := shared.Filter{Page: 1, PageSize: 10, OrderBy: "family_name", OrderDir: "desc", Search: term}
			items, total, err := repo.FindAll(ctx, f)
			require.NoError(t, err, term)
			assert.EqualValues(t, len(want), total, term)
			assert.Equal(t, want, familyNames(items), term)
		}
	})

	t.Run("paging", func(t *testing.T) {
		f := shared.Filter{Page: 2, PageSize: 2, OrderBy: "family_name", OrderDir: "asc"}
		items, total, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Equal(t, []string{"Rahman"}, familyNames(items))
	})

	t.Run("FindAllMatching ignores paging", func(t *testing.T) {
		f := shared.Filter{Page: 2, PageSize: 1, OrderBy: "location", OrderDir: "asc"}
		items, err := repo.FindAllMatching(ctx, f)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, "Kozhikode", items[0].Location)
		assert.Equal(t, "Malappuram", items[2].Location)
	})
}

func TestGormFamilyRepository_FindByHouseNumberAndDOB(t *testing.T) {
	repo := NewGormFamilyRepository(setupSQLiteDB(t))
	ctx := context.Background()
	seeded := seedFamilies(t, repo)

	got, err := repo.FindByHouseNumberAndDOB(ctx, " 12a ", "1980-05-01")
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, got.ID)

	_, err = repo.FindByHouseNumberAndDOB(ctx, "12A", "1999-01-01")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByHouseNumberAndDOB(ctx, "", "1980-05-01")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFamilyRepository_Update(t *testing.T) {
	repo := NewGormFamilyRepository(setupSQLiteDB(t))
	ctx := context.Background()
	seeded := seedFamilies(t, repo)

	update := registration.FamilyUpdate{
		HouseName:   "Al-Noor Manzil",
		FamilyName:  "Rahman",
		Location:    "Feroke",
		RoadName:    "Station Road",
		Address:     "Opp. School",
		PrimaryName: "Ali Rahman",
		Phone:       "98765 43211",
	}

	first, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)

	require.NoError(t, first.ApplyUpdate(update, time.Now()))
	require.NoError(t, repo.Update(ctx, first))

	got, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Al-Noor Manzil", got.HouseName)
	assert.Equal(t, "Feroke", got.Location)
	assert.Equal(t, "9876543211", got.PrimaryMember.Phone)
	assert.Equal(t, 2, got.Version)

	items, _, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, Search: "feroke"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, stale.ApplyUpdate(update, time.Now()))
	assert.ErrorIs(t, repo.Update(ctx, stale), shared.ErrConcurrencyConflict)

	missing := buildFamily(t, familySeed{houseName: "X", familyName: "Y", location: "Z", fullName: "A", surname: "B", createdAt: time.Now()})
	require.NoError(t, missing.ApplyUpdate(update, time.Now()))
	assert.ErrorIs(t, repo.Update(ctx, missing), shared.ErrNotFound)
}

func TestGormFamilyRepository_DeleteAndStats(t *testing.T) {
	repo := NewGormFamilyRepository(setupSQLiteDB(t))
	ctx := context.Background()

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, registration.FamilyStats{}, stats)

	seeded := seedFamilies(t, repo)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalFamilies)
	assert.EqualValues(t, 10, stats.TotalMembers)

	require.NoError(t, repo.Delete(ctx, seeded[2].ID))
	assert.ErrorIs(t, repo.Delete(ctx, seeded[2].ID), shared.ErrNotFound)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalFamilies)
	assert.EqualValues(t, 5, stats.TotalMembers)
}
