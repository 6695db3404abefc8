// internal/recommendation/trending.go
package recommendation

import (
	"context"
	"time"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/common/metrics"
	"template-recommender/internal/models"
)

// TrendingAggregator computes time-windowed usage rankings with a graceful
// fallback to overall popularity. Trending is an enhancement, not a critical
// path: any failure degrades to the fallback instead of propagating.
type TrendingAggregator struct {
	catalog   CatalogAccessor
	analytics UsageAnalytics
	logger    logger.Logger
}

// NewTrendingAggregator creates a trending aggregator.
func NewTrendingAggregator(catalog CatalogAccessor, analytics UsageAnalytics, log logger.Logger) *TrendingAggregator {
	return &TrendingAggregator{
		catalog:   catalog,
		analytics: analytics,
		logger:    log.WithFields(map[string]interface{}{"component": "trending"}),
	}
}

// Trending returns up to limit templates ordered by usage within the
// timeframe's window. With no usage rows in the window it falls back to the
// catalog's most popular public templates, so a non-empty catalog never
// yields an empty result.
func (a *TrendingAggregator) Trending(ctx context.Context, timeframe models.Timeframe, limit int) []models.TemplateRecord {
	since := time.Now().UTC().AddDate(0, 0, -timeframe.Days())

	counts, err := a.analytics.QueryWindow(ctx, since)
	if err != nil {
		a.logger.Warn("analytics query failed, using popularity fallback", map[string]interface{}{
			"timeframe": string(timeframe),
			"error":     err.Error(),
		})
		return a.fallback(ctx, limit)
	}

	if len(counts) == 0 {
		return a.fallback(ctx, limit)
	}

	if len(counts) > limit {
		counts = counts[:limit]
	}

	templates, err := a.fetchByIDs(ctx, counts)
	if err != nil {
		a.logger.Warn("catalog fetch failed, using popularity fallback", map[string]interface{}{
			"timeframe": string(timeframe),
			"error":     err.Error(),
		})
		return a.fallback(ctx, limit)
	}

	if len(templates) == 0 {
		return a.fallback(ctx, limit)
	}

	return templates
}

// fetchByIDs resolves analytics rows to template records, preserving the
// analytics ordering regardless of the order the catalog returns them in.
func (a *TrendingAggregator) fetchByIDs(ctx context.Context, counts []models.TemplateUsageCount) ([]models.TemplateRecord, error) {
	byID := make(map[string]models.TemplateRecord, len(counts))
	for _, row := range counts {
		record, err := a.catalog.GetByID(ctx, row.TemplateID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			byID[row.TemplateID] = *record
		}
	}

	ordered := make([]models.TemplateRecord, 0, len(byID))
	for _, row := range counts {
		if record, ok := byID[row.TemplateID]; ok {
			ordered = append(ordered, record)
		}
	}
	return ordered, nil
}

// fallback returns the overall most popular public templates. An empty slice
// here means the catalog itself is empty or unreachable.
func (a *TrendingAggregator) fallback(ctx context.Context, limit int) []models.TemplateRecord {
	metrics.TrendingFallbacks.Inc()

	templates, _, err := a.catalog.Search(ctx, models.CatalogFilters{
		PublicOnly:       true,
		Size:             limit,
		SortByPopularity: true,
	})
	if err != nil {
		a.logger.Warn("popularity fallback failed", map[string]interface{}{
			"error": err.Error(),
		})
		return []models.TemplateRecord{}
	}

	return templates
}
