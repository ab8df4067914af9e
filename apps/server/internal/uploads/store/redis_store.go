package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

const (
	redisIndexKey  = "uploads:index"
	redisKeyPrefix = "upload:"
)

// Compile-time check: *RedisStore implements uploads.HistoryStore.
var _ uploads.HistoryStore = (*RedisStore)(nil)

// RedisStore keeps upload records as JSON blobs indexed by a sorted set
// scored on creation time.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore. Records expire after ttl; zero keeps
// them forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

type redisRecord struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	RepoName       string    `json:"repoName"`
	URL            string    `json:"url"`
	Private        bool      `json:"private"`
	FilesCollected int       `json:"filesCollected"`
	FilesPublished int       `json:"filesPublished"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Save stores the record and adds it to the index.
func (s *RedisStore) Save(ctx context.Context, r uploads.Record) error {
	data, err := json.Marshal(redisRecord(r))
	if err != nil {
		return fmt.Errorf("marshal upload record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+r.ID, data, s.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(r.CreatedAt.UnixNano()), Member: r.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save upload %q: %w", r.ID, err)
	}
	return nil
}

// List returns up to limit records, newest first. Index entries whose blob
// has expired are pruned.
func (s *RedisStore) List(ctx context.Context, limit int) ([]uploads.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.rdb.ZRevRange(ctx, redisIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}

	out := make([]uploads.Record, 0, len(ids))
	for _, id := range ids {
		val, err := s.rdb.Get(ctx, redisKeyPrefix+id).Result()
		if errors.Is(err, redis.Nil) {
			_ = s.rdb.ZRem(ctx, redisIndexKey, id).Err() //nolint:errcheck // best-effort index cleanup
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get upload %q: %w", id, err)
		}
		var rec redisRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal upload %q: %w", id, err)
		}
		out = append(out, uploads.Record(rec))
	}
	return out, nil
}
