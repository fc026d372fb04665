package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveSubmit(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.ObserveSubmit(ctx, regapp.OutcomeSubmitted, 200*time.Millisecond)
	m.ObserveSubmit(ctx, regapp.OutcomeStoreFailed, time.Second)
	m.ObserveSubmit(ctx, regapp.OutcomeStoreFailed, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmitFailures.WithLabelValues(regapp.OutcomeStoreFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SubmitDuration))
}

func TestMetrics_ObservePhotoUpload(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.ObservePhotoUpload(ctx, 2048, nil)
	m.ObservePhotoUpload(ctx, 1024, errors.New("bucket gone"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoUploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoUploads.WithLabelValues("error")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.PhotoUploadBytes))
}

func TestMetrics_RegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestFamilyEventCounter(t *testing.T) {
	m := New(prometheus.NewRegistry())
	h := m.NewFamilyEventCounter()

	f := &registration.Family{}
	require.NoError(t, h.Handle(context.Background(), registration.NewFamilyRegisteredEvent(f)))
	require.NoError(t, h.Handle(context.Background(), registration.NewFamilyDeletedEvent(f)))

	assert.Len(t, h.EventTypes(), 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FamilyEvents.WithLabelValues(registration.EventTypeFamilyRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FamilyEvents.WithLabelValues(registration.EventTypeFamilyDeleted)))
}

func TestGinMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/families/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/families/1", "/families/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/families/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
