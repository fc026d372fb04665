package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedBlacklist(start time.Time) (*InMemoryTokenBlacklist, *time.Time) {
	now := start
	b := NewInMemoryTokenBlacklist()
	b.now = func() time.Time { return now }
	return b, &now
}

func TestInMemoryTokenBlacklist_Revoked(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b, _ := newClockedBlacklist(start)

	require.NoError(t, b.AddToBlacklist(ctx, "jti-1", time.Hour))
	require.NoError(t, b.InvalidateSubject(ctx, "family-1", time.Hour))

	tests := []struct {
		name     string
		jti      string
		subject  string
		issuedAt time.Time
		want     bool
	}{
		{"revoked jti", "jti-1", "family-2", start, true},
		{"invalidated subject", "jti-2", "family-1", start.Add(-time.Minute), true},
		{"issued in the same second", "jti-2", "family-1", start.Add(500 * time.Millisecond), true},
		{"issued after invalidation", "jti-2", "family-1", start.Add(time.Second), false},
		{"unknown token", "jti-2", "family-2", start, false},
		{"jti skipped", "", "family-2", start, false},
		{"subject skipped", "jti-1", "", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Revoked(ctx, tt.jti, tt.subject, tt.issuedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInMemoryTokenBlacklist_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b, now := newClockedBlacklist(start)

	require.NoError(t, b.AddToBlacklist(ctx, "jti-1", time.Minute))
	require.NoError(t, b.InvalidateSubject(ctx, "family-1", time.Hour))
	require.NoError(t, b.InvalidateSubject(ctx, "admin-1", 0))
	assert.Equal(t, 3, b.Len())

	*now = start.Add(2 * time.Minute)
	revoked, err := b.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 2, b.Len())

	*now = start.Add(2 * time.Hour)
	revoked, err = b.IsSubjectInvalidated(ctx, "family-1", start.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = b.IsSubjectInvalidated(ctx, "admin-1", start.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked, "zero ttl keeps the subject revoked")
	assert.Equal(t, 1, b.Len())
}
