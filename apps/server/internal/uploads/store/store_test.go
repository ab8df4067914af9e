package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgplatform "github.com/tilsley/repopush/apps/server/internal/platform/postgres"
	"github.com/tilsley/repopush/apps/server/internal/uploads"
	"github.com/tilsley/repopush/apps/server/internal/uploads/store"
	"github.com/tilsley/repopush/apps/server/internal/uploads/store/pgmigrations"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func record(name string, at time.Time) uploads.Record {
	return uploads.Record{
		ID:             uuid.New().String(),
		Owner:          "alice",
		RepoName:       name,
		URL:            "https://github.com/alice/" + name,
		FilesCollected: 3,
		FilesPublished: 2,
		CreatedAt:      at,
	}
}

// ─── shared behaviour ────────────────────────────────────────────────────────

func exerciseStore(t *testing.T, s uploads.HistoryStore) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Save(ctx, record("first", t0)))
	require.NoError(t, s.Save(ctx, record("third", t0.Add(2*time.Minute))))
	require.NoError(t, s.Save(ctx, record("second", t0.Add(time.Minute))))

	all, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].RepoName)
	assert.Equal(t, "second", all[1].RepoName)
	assert.Equal(t, "first", all[2].RepoName)
	assert.Equal(t, 3, all[0].FilesCollected)
	assert.Equal(t, 2, all[0].FilesPublished)
	assert.True(t, all[0].CreatedAt.Equal(t0.Add(2*time.Minute)))

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "third", limited[0].RepoName)
}

// ─── memory ──────────────────────────────────────────────────────────────────

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, store.NewMemoryStore(0))
}

func TestMemoryStore_DropsOldestBeyondMax(t *testing.T) {
	s := store.NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, record("a", t0)))
	require.NoError(t, s.Save(ctx, record("b", t0.Add(time.Second))))
	require.NoError(t, s.Save(ctx, record("c", t0.Add(2*time.Second))))

	got, err := s.List(ctx, 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].RepoName)
	assert.Equal(t, "b", got[1].RepoName)
}

// ─── redis ───────────────────────────────────────────────────────────────────

func newRedisStore(t *testing.T, ttl time.Duration) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return store.NewRedisStore(rdb, ttl), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	exerciseStore(t, s)
}

func TestRedisStore_ExpiredRecordsArePruned(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, record("old", t0)))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, s.Save(ctx, record("new", t0.Add(time.Minute))))

	got, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].RepoName)

	members, err := mr.ZMembers("uploads:index")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

// ─── postgres ────────────────────────────────────────────────────────────────

// Skips if POSTGRES_URL is not set.
func TestPGStore(t *testing.T) {
	pgURL := os.Getenv("POSTGRES_URL")
	if pgURL == "" {
		t.Skip("POSTGRES_URL not set, skipping Postgres integration tests")
	}
	pool, err := pgplatform.New(context.Background(), pgURL, pgmigrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), `DELETE FROM uploads`)
		require.NoError(t, err)
		pool.Close()
	})
	_, err = pool.Exec(context.Background(), `DELETE FROM uploads`)
	require.NoError(t, err)

	exerciseStore(t, store.NewPGStore(pool))
}
