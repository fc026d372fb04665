package family

import (
	"context"
	"sync"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultStatsTTL is how long a computed summary is served from memory
const DefaultStatsTTL = 30 * time.Second

// StatsService serves the public registration summary. Concurrent callers
// share one repository query and the result is cached for a short TTL.
type StatsService struct {
	families registration.FamilyRepository
	ttl      time.Duration
	group    singleflight.Group
	now      func() time.Time

	mu      sync.RWMutex
	cached  *StatsResult
	expires time.Time
}

// NewStatsService creates a stats service. A non-positive ttl uses DefaultStatsTTL.
func NewStatsService(families registration.FamilyRepository, ttl time.Duration) *StatsService {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsService{families: families, ttl: ttl, now: time.Now}
}

// Stats returns total families, total members and the average household size
func (s *StatsService) Stats(ctx context.Context) (*StatsResult, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Before(s.expires) {
		res := *s.cached
		s.mu.RUnlock()
		return &res, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("stats", func() (any, error) {
		raw, err := s.families.Stats(ctx)
		if err != nil {
			return nil, err
		}
		res := summarize(raw)
		s.mu.Lock()
		s.cached = &res
		s.expires = s.now().Add(s.ttl)
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(StatsResult)
	return &res, nil
}

// Invalidate drops the cached summary
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func summarize(raw registration.FamilyStats) StatsResult {
	avg := decimal.Zero
	if raw.TotalFamilies > 0 {
		avg = decimal.NewFromInt(raw.TotalMembers).
			DivRound(decimal.NewFromInt(raw.TotalFamilies), 2)
	}
	return StatsResult{
		TotalFamilies:  raw.TotalFamilies,
		TotalMembers:   raw.TotalMembers,
		AverageMembers: avg,
	}
}

// StatsInvalidator drops cached stats whenever the family set changes
type StatsInvalidator struct {
	stats *StatsService
}

// NewStatsInvalidator creates the handler
func NewStatsInvalidator(stats *StatsService) *StatsInvalidator {
	return &StatsInvalidator{stats: stats}
}

// Handle implements shared.EventHandler
func (h *StatsInvalidator) Handle(_ context.Context, _ shared.DomainEvent) error {
	h.stats.Invalidate()
	return nil
}

// EventTypes implements shared.EventHandler
func (h *StatsInvalidator) EventTypes() []string {
	return []string{registration.EventTypeFamilyRegistered, registration.EventTypeFamilyDeleted}
}

var _ shared.EventHandler = (*StatsInvalidator)(nil)
