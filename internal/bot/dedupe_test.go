package bot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestDeduper(t *testing.T) *Deduper {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDeduper(client, time.Hour, slog.New(slog.DiscardHandler))
}

func TestDeduperDropsRepeatedUpdates(t *testing.T) {
	d := newTestDeduper(t)
	ctx := context.Background()

	require.False(t, d.Seen(ctx, 1001))
	require.True(t, d.Seen(ctx, 1001))
	require.False(t, d.Seen(ctx, 1002))
}

func TestDeduperDisabledWithoutRedis(t *testing.T) {
	d := NewDeduper(nil, time.Hour, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	require.False(t, d.Seen(ctx, 1001))
	require.False(t, d.Seen(ctx, 1001))
}

func TestDeduperSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	d := NewDeduper(client, time.Hour, slog.New(slog.DiscardHandler))

	mr.Close()
	// Redis down: updates pass through rather than being dropped.
	require.False(t, d.Seen(context.Background(), 1001))
}
