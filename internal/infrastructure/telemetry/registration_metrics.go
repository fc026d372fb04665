package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	AttrOutcome = attribute.Key("outcome")
	AttrResult  = attribute.Key("result")
)

// SubmitDurationBuckets cover a fast store write up to a slow photo upload (seconds)
var SubmitDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// RegistrationMetrics exports submission measurements over OTLP.
// It satisfies the registration SubmitObserver port.
type RegistrationMetrics struct {
	submitDuration metric.Float64Histogram
	submissions    metric.Int64Counter
	photoUploads   metric.Int64Counter
	photoBytes     metric.Int64Counter
}

// NewRegistrationMetrics creates the registration instruments on meter
func NewRegistrationMetrics(meter metric.Meter) (*RegistrationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   RegistrationMetrics
		err error
	)
	if m.submitDuration, err = meter.Float64Histogram("registration.submit.duration",
		metric.WithDescription("Duration of wizard submissions"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(SubmitDurationBuckets...),
	); err != nil {
		return nil, instrumentErr("registration.submit.duration", err)
	}
	if m.submissions, err = meter.Int64Counter("registration.submit.count",
		metric.WithDescription("Wizard submission attempts by outcome"),
		metric.WithUnit("{submission}"),
	); err != nil {
		return nil, instrumentErr("registration.submit.count", err)
	}
	if m.photoUploads, err = meter.Int64Counter("registration.photo.uploads",
		metric.WithDescription("Guardian photo uploads by result"),
		metric.WithUnit("{upload}"),
	); err != nil {
		return nil, instrumentErr("registration.photo.uploads", err)
	}
	if m.photoBytes, err = meter.Int64Counter("registration.photo.bytes",
		metric.WithDescription("Bytes of guardian photos stored"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, instrumentErr("registration.photo.bytes", err)
	}
	return &m, nil
}

func instrumentErr(name string, err error) error {
	return fmt.Errorf("failed to create instrument %s: %w", name, err)
}

// ObserveSubmit records one finished submission attempt
func (m *RegistrationMetrics) ObserveSubmit(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(AttrOutcome.String(outcome))
	m.submissions.Add(ctx, 1, attrs)
	m.submitDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// ObservePhotoUpload records one storage upload
func (m *RegistrationMetrics) ObservePhotoUpload(ctx context.Context, size int64, err error) {
	if err != nil {
		m.photoUploads.Add(ctx, 1, metric.WithAttributes(AttrResult.String("failure")))
		return
	}
	m.photoUploads.Add(ctx, 1, metric.WithAttributes(AttrResult.String("success")))
	m.photoBytes.Add(ctx, size)
}
