package registration

import (
	"context"
	"sync"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DraftGuard serialises load/modify/save on one draft. A submission holds the
// draft's lock and also marks it in flight: edits and a second submit that
// arrive while the mark is held are refused instead of queued.
type DraftGuard struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*draftLock
}

type draftLock struct {
	sem        *semaphore.Weighted
	refs       int
	submitting bool
}

// NewDraftGuard creates an empty guard
func NewDraftGuard() *DraftGuard {
	return &DraftGuard{locks: make(map[uuid.UUID]*draftLock)}
}

// Lock waits for exclusive use of id. It fails with ErrSubmissionInFlight
// when a submission holds id, or with the context error.
func (g *DraftGuard) Lock(ctx context.Context, id uuid.UUID) (release func(), err error) {
	return g.lock(ctx, id, false)
}

// Acquire locks id for a submission and marks it in flight until release
func (g *DraftGuard) Acquire(ctx context.Context, id uuid.UUID) (release func(), err error) {
	return g.lock(ctx, id, true)
}

func (g *DraftGuard) lock(ctx context.Context, id uuid.UUID, submit bool) (func(), error) {
	g.mu.Lock()
	l, ok := g.locks[id]
	if ok && l.submitting {
		g.mu.Unlock()
		return nil, registration.ErrSubmissionInFlight
	}
	if !ok {
		l = &draftLock{sem: semaphore.NewWeighted(1)}
		g.locks[id] = l
	}
	l.refs++
	g.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		g.drop(id, l)
		return nil, err
	}

	g.mu.Lock()
	// a submission may have taken the lock while we queued
	if l.submitting {
		g.mu.Unlock()
		l.sem.Release(1)
		g.drop(id, l)
		return nil, registration.ErrSubmissionInFlight
	}
	l.submitting = submit
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			l.submitting = false
			g.mu.Unlock()
			l.sem.Release(1)
			g.drop(id, l)
		})
	}, nil
}

func (g *DraftGuard) drop(id uuid.UUID, l *draftLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, id)
	}
}

// InFlight reports whether a submission holds id
func (g *DraftGuard) InFlight(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[id]
	return ok && l.submitting
}

// Len reports the number of drafts locked or waited on
func (g *DraftGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
