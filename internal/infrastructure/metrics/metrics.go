// Package metrics exposes Prometheus counters for registrations and HTTP traffic.
package metrics

import (
	"context"
	"strconv"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	SubmitFailures     *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram
	PhotoUploads       *prometheus.CounterVec
	PhotoUploadBytes   prometheus.Counter
	FamilyEvents       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyreg_registrations_total",
			Help: "Total number of families registered through the wizard",
		}),
		SubmitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyreg_submit_failures_total",
			Help: "Wizard submissions that did not create a family, by reason",
		}, []string{"reason"}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "familyreg_submit_duration_seconds",
			Help:    "Duration of wizard submissions including the photo upload",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PhotoUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyreg_photo_uploads_total",
			Help: "Guardian photo uploads, by result",
		}, []string{"result"}),
		PhotoUploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyreg_photo_upload_bytes_total",
			Help: "Bytes of guardian photos stored",
		}),
		FamilyEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyreg_family_events_total",
			Help: "Family domain events published, by type",
		}, []string{"event_type"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyreg_http_requests_total",
			Help: "HTTP requests, by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "familyreg_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveSubmit records one finished submission attempt
func (m *Metrics) ObserveSubmit(_ context.Context, outcome string, elapsed time.Duration) {
	if outcome == regapp.OutcomeSubmitted {
		m.RegistrationsTotal.Inc()
		m.SubmitDuration.Observe(elapsed.Seconds())
		return
	}
	m.SubmitFailures.WithLabelValues(outcome).Inc()
}

// ObservePhotoUpload records one storage upload
func (m *Metrics) ObservePhotoUpload(_ context.Context, size int64, err error) {
	if err != nil {
		m.PhotoUploads.WithLabelValues("error").Inc()
		return
	}
	m.PhotoUploads.WithLabelValues("ok").Inc()
	m.PhotoUploadBytes.Add(float64(size))
}

// GinMiddleware counts requests by matched route, so path parameters do not explode cardinality
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// FamilyEventCounter counts family events from the event bus
type FamilyEventCounter struct {
	metrics *Metrics
}

// NewFamilyEventCounter creates the event bus subscriber
func (m *Metrics) NewFamilyEventCounter() *FamilyEventCounter {
	return &FamilyEventCounter{metrics: m}
}

// Handle implements shared.EventHandler
func (h *FamilyEventCounter) Handle(_ context.Context, event shared.DomainEvent) error {
	h.metrics.FamilyEvents.WithLabelValues(event.EventType()).Inc()
	return nil
}

// EventTypes implements shared.EventHandler
func (h *FamilyEventCounter) EventTypes() []string {
	return []string{
		registration.EventTypeFamilyRegistered,
		registration.EventTypeFamilyUpdated,
		registration.EventTypeFamilyDeleted,
	}
}

var (
	_ shared.EventHandler   = (*FamilyEventCounter)(nil)
	_ regapp.SubmitObserver = (*Metrics)(nil)
)
