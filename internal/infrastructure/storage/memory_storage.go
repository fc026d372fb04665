package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	regapp "github.com/familyreg/backend/internal/application/registration"
)

var _ regapp.PhotoStorage = (*MemoryPhotoStorage)(nil)

// memoryChunkSize is the granularity of progress reports for in-memory uploads
const memoryChunkSize = 32 * 1024

// StoredObject is a photo held by MemoryPhotoStorage
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryPhotoStorage keeps photos in process memory. It backs local development
// and tests; contents are lost on restart.
type MemoryPhotoStorage struct {
	mu        sync.RWMutex
	objects   map[string]StoredObject
	baseURL   string
	uploadErr error
}

// NewMemoryPhotoStorage creates an empty store whose URLs start with baseURL
func NewMemoryPhotoStorage(baseURL string) *MemoryPhotoStorage {
	if baseURL == "" {
		baseURL = "memory://photos"
	}
	return &MemoryPhotoStorage{
		objects: make(map[string]StoredObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FailUploads makes every following upload return err. Pass nil to recover.
func (s *MemoryPhotoStorage) FailUploads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadErr = err
}

// Upload stores a copy of data, reporting progress in fixed-size chunks
func (s *MemoryPhotoStorage) Upload(ctx context.Context, key string, data []byte, contentType string, progress regapp.ProgressFunc) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	s.mu.RLock()
	failure := s.uploadErr
	s.mu.RUnlock()
	if failure != nil {
		return "", failure
	}

	total := int64(len(data))
	for sent := int64(0); sent < total; {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sent = min(sent+memoryChunkSize, total)
		if progress != nil {
			progress(sent, total)
		}
	}

	s.mu.Lock()
	s.objects[key] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + escapeKey(key), nil
}

// Delete removes key if present
func (s *MemoryPhotoStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// PresignDownload returns the plain object URL with an expiry hint
func (s *MemoryPhotoStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.baseURL + "/" + escapeKey(key) + "?expires=" + expiresAt.UTC().Format(time.RFC3339), expiresAt, nil
}

// Get returns a stored object
func (s *MemoryPhotoStorage) Get(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (s *MemoryPhotoStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
