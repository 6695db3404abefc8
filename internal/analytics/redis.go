// internal/analytics/redis.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"

	"github.com/redis/go-redis/v9"
)

const dayFormat = "2006-01-02"

// RedisUsageAnalytics aggregates template usage in per-day Redis hashes.
// Each day's counts live in usage:daily:<yyyy-mm-dd>; a SET NX marker per
// template+user+day makes RecordDaily idempotent.
type RedisUsageAnalytics struct {
	client    *redis.Client
	logger    logger.Logger
	dedupeTTL time.Duration
	// counterTTL bounds how long a day hash is retained; it only needs to
	// outlive the widest query window.
	counterTTL time.Duration
}

// NewRedisUsageAnalytics creates the analytics store. dedupeTTL guards the
// per-user daily markers; 48h is enough to cover timezone skew around a day
// boundary.
func NewRedisUsageAnalytics(client *redis.Client, dedupeTTL time.Duration, log logger.Logger) *RedisUsageAnalytics {
	if dedupeTTL <= 0 {
		dedupeTTL = 48 * time.Hour
	}
	return &RedisUsageAnalytics{
		client:     client,
		logger:     log.WithFields(map[string]interface{}{"component": "usage-analytics"}),
		dedupeTTL:  dedupeTTL,
		counterTTL: 40 * 24 * time.Hour,
	}
}

// RecordDaily increments the template's count for the given day, at most
// once per template+user+day.
func (a *RedisUsageAnalytics) RecordDaily(ctx context.Context, templateID, userID string, date time.Time) error {
	day := date.UTC().Format(dayFormat)

	markerKey := fmt.Sprintf("usage:seen:%s:%s:%s", day, templateID, userID)
	created, err := a.client.SetNX(ctx, markerKey, 1, a.dedupeTTL).Result()
	if err != nil {
		return fmt.Errorf("usage dedupe check: %w", err)
	}
	if !created {
		// Already counted this user today.
		return nil
	}

	counterKey := dailyCounterKey(day)
	pipe := a.client.TxPipeline()
	pipe.HIncrBy(ctx, counterKey, templateID, 1)
	pipe.Expire(ctx, counterKey, a.counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment daily usage: %w", err)
	}

	return nil
}

// QueryWindow merges the day hashes from since until today and returns
// per-template totals sorted by count descending, ties broken by template id
// for a stable order.
func (a *RedisUsageAnalytics) QueryWindow(ctx context.Context, since time.Time) ([]models.TemplateUsageCount, error) {
	totals := make(map[string]int)

	day := since.UTC().Truncate(24 * time.Hour)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for !day.After(today) {
		counts, err := a.client.HGetAll(ctx, dailyCounterKey(day.Format(dayFormat))).Result()
		if err != nil {
			return nil, fmt.Errorf("read daily usage for %s: %w", day.Format(dayFormat), err)
		}
		for templateID, raw := range counts {
			count, err := strconv.Atoi(raw)
			if err != nil {
				a.logger.Warn("skipping malformed usage counter", map[string]interface{}{
					"templateId": templateID,
					"value":      raw,
				})
				continue
			}
			totals[templateID] += count
		}
		day = day.AddDate(0, 0, 1)
	}

	rows := make([]models.TemplateUsageCount, 0, len(totals))
	for templateID, count := range totals {
		rows = append(rows, models.TemplateUsageCount{TemplateID: templateID, UsageCount: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UsageCount != rows[j].UsageCount {
			return rows[i].UsageCount > rows[j].UsageCount
		}
		return rows[i].TemplateID < rows[j].TemplateID
	})

	return rows, nil
}

func dailyCounterKey(day string) string {
	return "usage:daily:" + day
}
