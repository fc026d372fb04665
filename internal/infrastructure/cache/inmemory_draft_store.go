package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
)

type draftEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryDraftStore keeps wizards in process memory, encoded so callers never share state.
// Suitable for single-instance deployments and tests.
type InMemoryDraftStore struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]draftEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDraftStore creates the store and starts a goroutine that evicts expired drafts
func NewInMemoryDraftStore(cleanupInterval time.Duration) *InMemoryDraftStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	s := &InMemoryDraftStore{
		entries:  make(map[uuid.UUID]draftEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(cleanupInterval)

	return s
}

// Save stores a snapshot of the wizard until ttl elapses
func (s *InMemoryDraftStore) Save(_ context.Context, w *registration.Wizard, ttl time.Duration) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[w.ID] = draftEntry{payload: payload, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns a fresh copy of the stored wizard
func (s *InMemoryDraftStore) Get(_ context.Context, id uuid.UUID) (*registration.Wizard, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return nil, registration.ErrDraftNotFound
	}

	var w registration.Wizard
	if err := json.Unmarshal(e.payload, &w); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &w, nil
}

// Delete removes a wizard. Unknown IDs are ignored.
func (s *InMemoryDraftStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryDraftStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryDraftStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryDraftStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored drafts, expired ones included until the next cleanup
func (s *InMemoryDraftStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ registration.WizardStore = (*InMemoryDraftStore)(nil)
