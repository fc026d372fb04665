//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/migration"
	"github.com/familyreg/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a disposable Postgres container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("family_registry_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestGormFamilyRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	repo := NewGormFamilyRepository(newPostgresDB(t))
	ctx := context.Background()
	seeded := seedFamilies(t, repo)

	items, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, OrderBy: "family_name", OrderDir: "asc", Search: "KOZHIKODE"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"Koya", "Rahman"}, familyNames(items))

	got, err := repo.FindByHouseNumberAndDOB(ctx, "12a", "1980-05-01")
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, got.ID)
	assert.Len(t, got.Members, 3)

	require.NoError(t, got.ApplyUpdate(registration.FamilyUpdate{
		HouseName: "Al-Noor", FamilyName: "Rahman", Location: "Kozhikode",
		RoadName: "Main Road", Address: "Near Masjid", PrimaryName: "Ali Rahman", Phone: "9876543210",
	}, time.Now()))
	require.NoError(t, repo.Update(ctx, got))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalFamilies)
	assert.EqualValues(t, 10, stats.TotalMembers)
}
