package family

import (
	"context"
	"fmt"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PhotoCleanupHandler deletes the stored guardian photo of a deleted family
type PhotoCleanupHandler struct {
	photos regapp.PhotoStorage
	logger *zap.Logger
}

// NewPhotoCleanupHandler creates the handler
func NewPhotoCleanupHandler(photos regapp.PhotoStorage, logger *zap.Logger) *PhotoCleanupHandler {
	return &PhotoCleanupHandler{photos: photos, logger: logger}
}

// Handle implements shared.EventHandler
func (h *PhotoCleanupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*registration.FamilyDeletedEvent)
	if !ok || e.PhotoKey == "" {
		return nil
	}
	if err := h.photos.Delete(ctx, e.PhotoKey); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", e.PhotoKey, err)
	}
	h.logger.Info("Deleted guardian photo",
		zap.String("family_id", e.AggregateID().String()),
		zap.String("photo_key", e.PhotoKey))
	return nil
}

// EventTypes implements shared.EventHandler
func (h *PhotoCleanupHandler) EventTypes() []string {
	return []string{registration.EventTypeFamilyDeleted}
}

// SubjectInvalidator revokes tokens held by a household
type SubjectInvalidator interface {
	InvalidateSubject(ctx context.Context, subject string, ttl time.Duration) error
}

// SessionRevocationHandler signs a deleted family out of every device
type SessionRevocationHandler struct {
	revoker SubjectInvalidator
	ttl     time.Duration
}

// NewSessionRevocationHandler creates the handler. ttl should cover the refresh token lifetime.
func NewSessionRevocationHandler(revoker SubjectInvalidator, ttl time.Duration) *SessionRevocationHandler {
	return &SessionRevocationHandler{revoker: revoker, ttl: ttl}
}

// Handle implements shared.EventHandler
func (h *SessionRevocationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.revoker.InvalidateSubject(ctx, event.AggregateID().String(), h.ttl)
}

// EventTypes implements shared.EventHandler
func (h *SessionRevocationHandler) EventTypes() []string {
	return []string{registration.EventTypeFamilyDeleted}
}

var (
	_ shared.EventHandler = (*PhotoCleanupHandler)(nil)
	_ shared.EventHandler = (*SessionRevocationHandler)(nil)
)
