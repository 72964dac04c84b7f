package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "washweek:update:"

// Deduper drops webhook updates Telegram has already delivered once.
// Telegram retries deliveries until it sees a 2xx, so the same update id
// can arrive more than once.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewDeduper builds the guard. A nil client disables deduplication.
func NewDeduper(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduper{client: client, ttl: ttl, logger: logger}
}

// Seen marks the update id as processed and reports whether it had been
// seen before. Redis failures count as unseen: dropping a fresh message
// is worse than answering a duplicate twice.
func (d *Deduper) Seen(ctx context.Context, updateID int) bool {
	if d == nil || d.client == nil {
		return false
	}
	key := fmt.Sprintf("%s%d", dedupeKeyPrefix, updateID)
	fresh, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("update dedupe check failed", slog.Any("error", err))
		return false
	}
	return !fresh
}
