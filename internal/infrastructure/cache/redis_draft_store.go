package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultDraftKeyPrefix = "familyreg:draft:"

// RedisDraftStore keeps wizards as JSON documents with a TTL, shared across instances
type RedisDraftStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisDraftStore creates a store on a shared client. An empty prefix uses the default.
func NewRedisDraftStore(client redis.Cmdable, keyPrefix string) *RedisDraftStore {
	if keyPrefix == "" {
		keyPrefix = defaultDraftKeyPrefix
	}
	return &RedisDraftStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisDraftStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

// Save writes the wizard and resets its expiry
func (s *RedisDraftStore) Save(ctx context.Context, w *registration.Wizard, ttl time.Duration) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(w.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get loads a wizard, returning ErrDraftNotFound once the key expired
func (s *RedisDraftStore) Get(ctx context.Context, id uuid.UUID) (*registration.Wizard, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, registration.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var w registration.Wizard
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &w, nil
}

// Delete removes a wizard
func (s *RedisDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

var _ registration.WizardStore = (*RedisDraftStore)(nil)
