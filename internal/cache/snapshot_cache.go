package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leonthanh/listening-service/internal/session"
	"github.com/redis/go-redis/v9"
)

// Snapshot blobs outlive the longest test duration by a wide margin; the TTL
// only reaps attempts that were abandoned without ever submitting.
const snapshotTTL = 7 * 24 * time.Hour

// SnapshotCache stores in-progress attempt state in Redis, one JSON blob per
// (test, user). It implements session.SnapshotStore: a corrupt or missing
// blob loads as nil, never as an error the attempt should see.
type SnapshotCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewSnapshotCache(client *redis.Client, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{client: client, logger: logger}
}

func snapshotKey(testID uint, userID string) string {
	return fmt.Sprintf("listening:%d:state:%s", testID, userID)
}

func (c *SnapshotCache) Load(ctx context.Context, testID uint, userID string) (*session.PersistedState, error) {
	raw, err := c.client.Get(ctx, snapshotKey(testID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	st := session.DecodePersistedState(raw)
	if st == nil && len(raw) > 0 {
		c.logger.Warn("discarding corrupt snapshot blob",
			"test_id", testID, "user_id", userID)
	}
	return st, nil
}

func (c *SnapshotCache) Save(ctx context.Context, testID uint, userID string, st *session.PersistedState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(testID, userID), raw, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (c *SnapshotCache) Delete(ctx context.Context, testID uint, userID string) error {
	if err := c.client.Del(ctx, snapshotKey(testID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
