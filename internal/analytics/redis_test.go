// internal/analytics/redis_test.go
package analytics

import (
	"context"
	"testing"
	"time"

	"template-recommender/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalytics(t *testing.T) (*RedisUsageAnalytics, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisUsageAnalytics(client, 48*time.Hour, logger.NewTestLogger(t)), server
}

func TestRecordDaily_IncrementsCounter(t *testing.T) {
	store, server := newTestAnalytics(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-a", now))

	key := dailyCounterKey(now.Format(dayFormat))
	assert.Equal(t, "1", server.HGet(key, "tpl-1"))
}

func TestRecordDaily_IdempotentPerUserAndDay(t *testing.T) {
	store, server := newTestAnalytics(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-a", now))
	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-a", now))
	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-b", now))

	key := dailyCounterKey(now.Format(dayFormat))
	assert.Equal(t, "2", server.HGet(key, "tpl-1"))
}

func TestRecordDaily_SeparateDaysCountSeparately(t *testing.T) {
	store, server := newTestAnalytics(t)
	ctx := context.Background()

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)

	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-a", yesterday))
	require.NoError(t, store.RecordDaily(ctx, "tpl-1", "user-a", today))

	assert.Equal(t, "1", server.HGet(dailyCounterKey(yesterday.Format(dayFormat)), "tpl-1"))
	assert.Equal(t, "1", server.HGet(dailyCounterKey(today.Format(dayFormat)), "tpl-1"))
}

func TestQueryWindow_AggregatesAndSorts(t *testing.T) {
	store, server := newTestAnalytics(t)
	ctx := context.Background()

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)

	server.HSet(dailyCounterKey(yesterday.Format(dayFormat)), "tpl-a", "3")
	server.HSet(dailyCounterKey(yesterday.Format(dayFormat)), "tpl-b", "10")
	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-a", "4")
	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-c", "7")

	rows, err := store.QueryWindow(ctx, yesterday)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "tpl-b", rows[0].TemplateID)
	assert.Equal(t, 10, rows[0].UsageCount)
	assert.Equal(t, "tpl-a", rows[1].TemplateID)
	assert.Equal(t, 7, rows[1].UsageCount)
	assert.Equal(t, "tpl-c", rows[2].TemplateID)
}

func TestQueryWindow_TieBreaksByTemplateID(t *testing.T) {
	store, server := newTestAnalytics(t)
	today := time.Now().UTC()

	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-z", "5")
	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-a", "5")

	rows, err := store.QueryWindow(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tpl-a", rows[0].TemplateID)
	assert.Equal(t, "tpl-z", rows[1].TemplateID)
}

func TestQueryWindow_ExcludesDaysBeforeWindow(t *testing.T) {
	store, server := newTestAnalytics(t)
	today := time.Now().UTC()
	old := today.AddDate(0, 0, -10)

	server.HSet(dailyCounterKey(old.Format(dayFormat)), "tpl-old", "99")
	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-new", "1")

	rows, err := store.QueryWindow(context.Background(), today.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tpl-new", rows[0].TemplateID)
}

func TestQueryWindow_SkipsMalformedCounters(t *testing.T) {
	store, server := newTestAnalytics(t)
	today := time.Now().UTC()

	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-bad", "not-a-number")
	server.HSet(dailyCounterKey(today.Format(dayFormat)), "tpl-good", "2")

	rows, err := store.QueryWindow(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tpl-good", rows[0].TemplateID)
}

func TestQueryWindow_EmptyWindow(t *testing.T) {
	store, _ := newTestAnalytics(t)

	rows, err := store.QueryWindow(context.Background(), time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
