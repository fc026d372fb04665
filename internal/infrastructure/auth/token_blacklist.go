package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire. Single tokens are revoked
// by JTI on logout and refresh; whole subjects are revoked when a family is
// deleted or an admin is deactivated.
type TokenBlacklist interface {
	// AddToBlacklist revokes one token. ttl should be the token's remaining lifetime.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateSubject revokes every token issued to subject up to now
	InvalidateSubject(ctx context.Context, subject string, ttl time.Duration) error
	IsSubjectInvalidated(ctx context.Context, subject string, issuedAt time.Time) (bool, error)

	// Revoked answers both questions for one token at once. Empty jti or
	// subject skips that half.
	Revoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error)
}

const blacklistKeyPrefix = "familyreg:token:blacklist:"

// RedisTokenBlacklist shares revocations between server instances
type RedisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func jtiKey(jti string) string         { return blacklistKeyPrefix + "jti:" + jti }
func subjectKey(subject string) string { return blacklistKeyPrefix + "subject:" + subject }

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, jtiKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return b.Revoked(ctx, jti, "", time.Time{})
}

// InvalidateSubject stores the revocation time in Unix seconds, the precision of iat
func (b *RedisTokenBlacklist) InvalidateSubject(ctx context.Context, subject string, ttl time.Duration) error {
	if err := b.client.Set(ctx, subjectKey(subject), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate subject tokens: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsSubjectInvalidated(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	return b.Revoked(ctx, "", subject, issuedAt)
}

// Revoked pipelines the JTI and subject lookups into one round trip
func (b *RedisTokenBlacklist) Revoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	var (
		exists *redis.IntCmd
		since  *redis.StringCmd
	)
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		if jti != "" {
			exists = p.Exists(ctx, jtiKey(jti))
		}
		if subject != "" {
			since = p.Get(ctx, subjectKey(subject))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}

	if exists != nil && exists.Val() > 0 {
		return true, nil
	}
	if since == nil || errors.Is(since.Err(), redis.Nil) {
		return false, nil
	}
	invalidatedAt, err := strconv.ParseInt(since.Val(), 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedAt.Unix() <= invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory. It is only
// correct for a single server instance.
type InMemoryTokenBlacklist struct {
	mu       sync.Mutex
	now      func() time.Time
	tokens   map[string]time.Time // jti -> expiry
	subjects map[string]revocation
}

type revocation struct {
	at      int64 // Unix seconds
	expires time.Time
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		now:      time.Now,
		tokens:   make(map[string]time.Time),
		subjects: make(map[string]revocation),
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweep()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return b.Revoked(ctx, jti, "", time.Time{})
}

// InvalidateSubject keeps the entry for ttl. A non-positive ttl keeps it until restart.
func (b *InMemoryTokenBlacklist) InvalidateSubject(_ context.Context, subject string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweep()
	now := b.now()
	r := revocation{at: now.Unix()}
	if ttl > 0 {
		r.expires = now.Add(ttl)
	}
	b.subjects[subject] = r
	return nil
}

func (b *InMemoryTokenBlacklist) IsSubjectInvalidated(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	return b.Revoked(ctx, "", subject, issuedAt)
}

func (b *InMemoryTokenBlacklist) Revoked(_ context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()

	if jti != "" {
		if expiry, ok := b.tokens[jti]; ok && now.Before(expiry) {
			return true, nil
		}
	}
	if subject != "" {
		r, ok := b.subjects[subject]
		if ok && (r.expires.IsZero() || now.Before(r.expires)) && issuedAt.Unix() <= r.at {
			return true, nil
		}
	}
	return false, nil
}

// sweep drops expired entries; callers hold mu
func (b *InMemoryTokenBlacklist) sweep() {
	now := b.now()
	for jti, expiry := range b.tokens {
		if !now.Before(expiry) {
			delete(b.tokens, jti)
		}
	}
	for subject, r := range b.subjects {
		if !r.expires.IsZero() && !now.Before(r.expires) {
			delete(b.subjects, subject)
		}
	}
}

// Len reports the number of live entries
func (b *InMemoryTokenBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweep()
	return len(b.tokens) + len(b.subjects)
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
