package registration

import (
	"context"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
)

// ProgressFunc receives cumulative bytes sent out of total
type ProgressFunc func(sent, total int64)

// PhotoStorage stores cropped guardian photos
type PhotoStorage interface {
	// Upload stores data under key and returns the URL recorded on the family.
	// progress may be nil.
	Upload(ctx context.Context, key string, data []byte, contentType string, progress ProgressFunc) (string, error)
	Delete(ctx context.Context, key string) error
	// PresignDownload returns a time-limited URL for a private bucket
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ImageInfo describes a decoded upload
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// PhotoCropper decodes an uploaded image and renders the fixed 3:4 guardian photo
type PhotoCropper interface {
	// Inspect checks that data decodes as an image and returns its dimensions
	Inspect(data []byte) (ImageInfo, error)
	Crop(data []byte) (registration.CroppedPhoto, error)
}

// Submission outcomes reported to SubmitObserver
const (
	OutcomeSubmitted    = "submitted"
	OutcomeInvalid      = "invalid"
	OutcomeUploadFailed = "upload_failed"
	OutcomeStoreFailed  = "store_failed"
	OutcomeInFlight     = "in_flight"
)

// SubmitObserver receives submission and upload measurements
type SubmitObserver interface {
	ObserveSubmit(ctx context.Context, outcome string, elapsed time.Duration)
	ObservePhotoUpload(ctx context.Context, size int64, err error)
}

// Observers fans measurements out to every observer
type Observers []SubmitObserver

// ObserveSubmit implements SubmitObserver
func (o Observers) ObserveSubmit(ctx context.Context, outcome string, elapsed time.Duration) {
	for _, obs := range o {
		obs.ObserveSubmit(ctx, outcome, elapsed)
	}
}

// ObservePhotoUpload implements SubmitObserver
func (o Observers) ObservePhotoUpload(ctx context.Context, size int64, err error) {
	for _, obs := range o {
		obs.ObservePhotoUpload(ctx, size, err)
	}
}

// SubmitProgress receives upload progress as a percentage from 0 to 100
type SubmitProgress func(percent int)
