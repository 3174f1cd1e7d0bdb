package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testTurn(i int) domain.Turn {
	return domain.Turn{
		Question:     fmt.Sprintf("question %d", i),
		Answer:       fmt.Sprintf("answer %d", i),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		ContextCount: i,
	}
}

// ==================== Initialisation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)
	assert.NotEmpty(t, store.Path())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same database must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Conversation Tests ====================

func TestStore_LoadUnknownSession(t *testing.T) {
	store := setupTestStore(t)

	turns, err := store.Load(context.Background(), "missing")

	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_AppendAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))
	require.NoError(t, store.Append(ctx, "s1", testTurn(2)))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "question 1", turns[0].Question)
	assert.Equal(t, "answer 1", turns[0].Answer)
	assert.Equal(t, 1, turns[0].ContextCount)
	assert.Equal(t, "question 2", turns[1].Question)
}

func TestStore_AppendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "question 1", turns[0].Question)
}

func TestStore_SessionIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))
	require.NoError(t, store.Append(ctx, "s2", testTurn(2)))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "question 1", turns[0].Question)
}

func TestStore_Recent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, "s1", testTurn(i)))
	}

	turns, err := store.Recent(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Chronological order within the window.
	assert.Equal(t, "question 3", turns[0].Question)
	assert.Equal(t, "question 4", turns[1].Question)
	assert.Equal(t, "question 5", turns[2].Question)
}

func TestStore_RecentShorterThanWindow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestStore_RecentZeroWindow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))

	turns, err := store.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_Clear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))
	require.NoError(t, store.Append(ctx, "s2", testTurn(2)))

	require.NoError(t, store.Clear(ctx, "s1"))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Other sessions are untouched.
	turns, err = store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestStore_ClearUnknownSession(t *testing.T) {
	store := setupTestStore(t)

	assert.NoError(t, store.Clear(context.Background(), "missing"))
}

func TestStore_AppendAfterClear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", testTurn(1)))
	require.NoError(t, store.Clear(ctx, "s1"))
	require.NoError(t, store.Append(ctx, "s1", testTurn(2)))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "question 2", turns[0].Question)
}

func TestStore_ConcurrentAppendsSameSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	const n = 20
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "s1", testTurn(i)))
		}(i)
	}
	wg.Wait()

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, n)
}

func TestStore_ConcurrentAppendsDifferentSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	const sessions = 5
	const perSession = 5
	for s := 0; s < sessions; s++ {
		for i := 0; i < perSession; i++ {
			wg.Add(1)
			go func(s, i int) {
				defer wg.Done()
				sid := fmt.Sprintf("session-%d", s)
				assert.NoError(t, store.Append(ctx, sid, testTurn(i)))
			}(s, i)
		}
	}
	wg.Wait()

	for s := 0; s < sessions; s++ {
		turns, err := store.Load(ctx, fmt.Sprintf("session-%d", s))
		require.NoError(t, err)
		assert.Len(t, turns, perSession)
	}
}
