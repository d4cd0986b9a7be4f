package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// The platform redelivers an unacknowledged update for up to a day.
const defaultDedupTTL = 24 * time.Hour

// UpdateDeduplicator remembers webhook update ids so a redelivered update is
// processed once. Key format: dedup:update:<update_id>
type UpdateDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewUpdateDeduplicator wraps client. A non-positive ttl uses the default.
func NewUpdateDeduplicator(client redis.Cmdable, ttl time.Duration) *UpdateDeduplicator {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &UpdateDeduplicator{client: client, ttl: ttl}
}

// FirstSeen atomically marks updateID as processed and reports whether this
// call was the first to do so.
func (d *UpdateDeduplicator) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(updateID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup mark: %w", err)
	}
	return ok, nil
}

func (d *UpdateDeduplicator) key(updateID int64) string {
	return "dedup:update:" + strconv.FormatInt(updateID, 10)
}
