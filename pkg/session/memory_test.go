package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryTestStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(ttl, testLogger(), nil)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := newMemoryTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", testUser()))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "orch-token-1", got.OrchestrationToken)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsIsolatedCopies(t *testing.T) {
	store := newMemoryTestStore(t, time.Hour)
	ctx := context.Background()

	saved := testUser()
	require.NoError(t, store.Save(ctx, "sid-1", saved))

	// Mutating the saved value or a read result must not leak into later
	// reads.
	saved.OrchestrationToken = "mutated-after-save"
	first, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	first.User.Email = "mutated@example.com"
	first.Permissions.Skills.AllowedSkills = append(first.Permissions.Skills.AllowedSkills, "mutated-skill")

	second, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "orch-token-1", second.OrchestrationToken)
	assert.NotEqual(t, "mutated@example.com", second.User.Email)
	assert.NotContains(t, second.Permissions.Skills.AllowedSkills, "mutated-skill")
}

func TestMemoryStore_ExpiryOnRead(t *testing.T) {
	store := newMemoryTestStore(t, time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "sid-1", testUser()))

	// Still live just before the TTL.
	now = now.Add(time.Hour - time.Second)
	_, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)

	// Expired entries are invisible even before the sweeper runs.
	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := newMemoryTestStore(t, time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "stale", testUser()))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, "fresh", testUser()))

	store.sweep()

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.NotContains(t, store.entries, "stale")
	assert.Contains(t, store.entries, "fresh")
}
