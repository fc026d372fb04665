package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedFamily struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedFamily{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
}

func TestRegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	assert.NoError(t, p.RegisterOtelGorm(db))
}

func TestRegisterOtelGorm_EmitsSpans(t *testing.T) {
	recorder := withRecorder(t)
	db := setupTestDB(t)

	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, p.RegisterOtelGorm(db))

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedFamily{Name: "Rahman"}).Error)
	assert.NotEmpty(t, recorder.Ended())
}

func TestSlowQueryCallback_MarksSlowQuery(t *testing.T) {
	recorder := withRecorder(t)
	db := setupTestDB(t)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 100 * time.Millisecond}, zap.NewNop())
	p.now = func() time.Time { return start.Add(time.Second) }

	ctx, span := StartSpan(context.Background(), "families.create")
	res := db.WithContext(ctx).Create(&tracedFamily{Name: "Rahman"})
	require.NoError(t, res.Error)
	res.Statement.Context = context.WithValue(ctx, queryStartTimeKey, start)

	p.slowQueryCallback(res)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, true, attrs["db.slow_query"])
	assert.Equal(t, int64(1000), attrs["db.query_duration_ms"])
	assert.Equal(t, int64(1), attrs["db.rows_affected"])
	assert.Equal(t, "traced_families", attrs["db.sql.table"])
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "slow_query_warning", spans[0].Events()[0].Name)
}

func TestSlowQueryCallback_RecordNotFoundIsNotAnError(t *testing.T) {
	recorder := withRecorder(t)
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	ctx, span := StartSpan(context.Background(), "families.get")
	var fam tracedFamily
	res := db.WithContext(ctx).First(&fam, 999)
	require.ErrorIs(t, res.Error, gorm.ErrRecordNotFound)

	p.slowQueryCallback(res)
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}
