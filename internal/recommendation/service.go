// internal/recommendation/service.go
package recommendation

import (
	"context"
	"fmt"
	"sort"
	"time"

	stderrors "template-recommender/internal/common/errors"
	"template-recommender/internal/common/logger"
	"template-recommender/internal/common/metrics"
	"template-recommender/internal/models"
)

// Service orchestrates catalog retrieval, filtering, scoring, ranking and
// feedback recording. It is constructed explicitly with its collaborators;
// tests substitute fakes for the ports.
type Service struct {
	catalog   CatalogAccessor
	prefs     *PreferenceStore
	analytics UsageAnalytics
	scorer    *Scorer
	trending  *TrendingAggregator
	logger    logger.Logger

	defaultLimit  int
	maxCandidates int
}

// Options tunes service-wide limits. Zero values fall back to the defaults
// below.
type Options struct {
	DefaultLimit  int
	MaxCandidates int
}

const (
	defaultRecommendationLimit = 10
	defaultMaxCandidates       = 100
)

// NewService wires the recommendation pipeline.
func NewService(catalog CatalogAccessor, repo PreferenceRepository, analytics UsageAnalytics, opts Options, log logger.Logger) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultRecommendationLimit
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}

	serviceLog := log.WithFields(map[string]interface{}{"component": "recommendation-service"})

	return &Service{
		catalog:       catalog,
		prefs:         NewPreferenceStore(repo, log),
		analytics:     analytics,
		scorer:        NewScorer(log),
		trending:      NewTrendingAggregator(catalog, analytics, log),
		logger:        serviceLog,
		defaultLimit:  opts.DefaultLimit,
		maxCandidates: opts.MaxCandidates,
	}
}

// Preferences exposes the preference store, mainly for cache control.
func (s *Service) Preferences() *PreferenceStore {
	return s.prefs
}

// GetRecommendations returns the top templates for the user, ranked by
// score. Malformed input fails fast; transient collaborator failures degrade
// to an empty result because recommendations are advisory.
func (s *Service) GetRecommendations(ctx context.Context, userID string, opts models.RecommendationOptions) (*models.RecommendationResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("get_recommendations").Observe(time.Since(start).Seconds())
	}()

	if userID == "" {
		metrics.RecommendationRequests.WithLabelValues("get_recommendations", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError("userId must not be empty")
	}
	if opts.Limit < 0 {
		metrics.RecommendationRequests.WithLabelValues("get_recommendations", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError(fmt.Sprintf("limit must not be negative, got %d", opts.Limit))
	}
	if opts.Limit == 0 {
		opts.Limit = s.defaultLimit
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("preference load failed, returning empty recommendations", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues("get_recommendations", "degraded").Inc()
		return emptyResult(), nil
	}

	candidates, _, err := s.catalog.Search(ctx, models.CatalogFilters{
		PublicOnly: true,
		MinRating:  opts.MinRating,
		Size:       s.maxCandidates,
	})
	if err != nil {
		s.logger.Warn("catalog search failed, returning empty recommendations", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues("get_recommendations", "degraded").Inc()
		return emptyResult(), nil
	}

	candidates = filterCandidates(candidates, prefs, opts)
	metrics.CandidatesScored.Observe(float64(len(candidates)))

	scores := s.scorer.Score(prefs, candidates, opts.IncludeReasons)

	// Descending by score; equal scores break deterministically by id.
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TemplateID < scores[j].TemplateID
	})

	if len(scores) > opts.Limit {
		scores = scores[:opts.Limit]
	}

	byID := make(map[string]models.TemplateRecord, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.ID] = candidate
	}

	result := &models.RecommendationResult{
		Templates: make([]models.TemplateRecord, 0, len(scores)),
		Scores:    scores,
	}
	for _, score := range scores {
		result.Templates = append(result.Templates, byID[score.TemplateID])
	}

	s.logger.Info("recommendations computed", map[string]interface{}{
		"userId":     userID,
		"candidates": len(candidates),
		"returned":   len(result.Templates),
		"durationMs": time.Since(start).Milliseconds(),
	})
	metrics.RecommendationRequests.WithLabelValues("get_recommendations", "ok").Inc()

	return result, nil
}

// GetSimilarTemplates returns up to limit public templates most similar to
// the given one, excluding the template itself.
func (s *Service) GetSimilarTemplates(ctx context.Context, templateID string, limit int) ([]models.TemplateRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("get_similar").Observe(time.Since(start).Seconds())
	}()

	if templateID == "" {
		metrics.RecommendationRequests.WithLabelValues("get_similar", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError("templateId must not be empty")
	}
	if limit < 0 {
		metrics.RecommendationRequests.WithLabelValues("get_similar", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError(fmt.Sprintf("limit must not be negative, got %d", limit))
	}
	if limit == 0 {
		limit = s.defaultLimit
	}

	target, err := s.catalog.GetByID(ctx, templateID)
	if err != nil {
		s.logger.Warn("catalog fetch failed, returning no similar templates", map[string]interface{}{
			"templateId": templateID,
			"error":      err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues("get_similar", "degraded").Inc()
		return []models.TemplateRecord{}, nil
	}
	if target == nil {
		metrics.RecommendationRequests.WithLabelValues("get_similar", "invalid").Inc()
		return nil, stderrors.NewTemplateNotFoundError(templateID)
	}

	peers, _, err := s.catalog.Search(ctx, models.CatalogFilters{
		Categories: []models.TemplateCategory{target.Category},
		PublicOnly: true,
		Size:       s.maxCandidates,
	})
	if err != nil {
		s.logger.Warn("catalog search failed, returning no similar templates", map[string]interface{}{
			"templateId": templateID,
			"error":      err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues("get_similar", "degraded").Inc()
		return []models.TemplateRecord{}, nil
	}

	type scoredPeer struct {
		record models.TemplateRecord
		score  float64
	}

	scored := make([]scoredPeer, 0, len(peers))
	for i := range peers {
		if peers[i].ID == target.ID {
			continue
		}
		scored = append(scored, scoredPeer{
			record: peers[i],
			score:  Similarity(target, &peers[i]),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].record.ID < scored[j].record.ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	similar := make([]models.TemplateRecord, 0, len(scored))
	for _, peer := range scored {
		similar = append(similar, peer.record)
	}

	metrics.RecommendationRequests.WithLabelValues("get_similar", "ok").Inc()
	return similar, nil
}

// GetTrendingTemplates returns the templates most used within the timeframe,
// falling back to overall popularity when the window is sparse.
func (s *Service) GetTrendingTemplates(ctx context.Context, timeframe models.Timeframe, limit int) ([]models.TemplateRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues("get_trending").Observe(time.Since(start).Seconds())
	}()

	if !timeframe.Valid() {
		metrics.RecommendationRequests.WithLabelValues("get_trending", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError(fmt.Sprintf("unknown timeframe %q", timeframe))
	}
	if limit < 0 {
		metrics.RecommendationRequests.WithLabelValues("get_trending", "invalid").Inc()
		return nil, stderrors.NewInvalidArgumentError(fmt.Sprintf("limit must not be negative, got %d", limit))
	}
	if limit == 0 {
		limit = s.defaultLimit
	}

	templates := s.trending.Trending(ctx, timeframe, limit)
	metrics.RecommendationRequests.WithLabelValues("get_trending", "ok").Inc()
	return templates, nil
}

// RecordTemplateUsage records a usage event in the user's preference history
// and in daily analytics. Both writes are best-effort; only malformed input
// is reported to the caller.
func (s *Service) RecordTemplateUsage(ctx context.Context, userID, templateID string, usage models.UsageEvent) error {
	if userID == "" {
		return stderrors.NewInvalidArgumentError("userId must not be empty")
	}
	if templateID == "" {
		return stderrors.NewInvalidArgumentError("templateId must not be empty")
	}

	s.prefs.RecordUsage(ctx, userID, templateID, usage)

	if err := s.analytics.RecordDaily(ctx, templateID, userID, time.Now().UTC()); err != nil {
		metrics.AnalyticsWriteFailures.Inc()
		s.logger.Warn("failed to record daily usage analytics", map[string]interface{}{
			"userId":     userID,
			"templateId": templateID,
			"error":      err.Error(),
		})
	}

	return nil
}

// RecordTemplateRating appends a rating to the user's preference record.
// Best-effort, like usage recording.
func (s *Service) RecordTemplateRating(ctx context.Context, userID, templateID string, rating float64) error {
	if userID == "" {
		return stderrors.NewInvalidArgumentError("userId must not be empty")
	}
	if templateID == "" {
		return stderrors.NewInvalidArgumentError("templateId must not be empty")
	}
	if rating < 0 || rating > 5 {
		return stderrors.NewInvalidArgumentError(fmt.Sprintf("rating must be within [0, 5], got %g", rating))
	}

	s.prefs.RecordRating(ctx, userID, templateID, rating)
	return nil
}

// UpdateSearchPreferences records a search and folds the selected templates'
// categories and tags into the user's preferred sets. Failures resolving a
// selected template are skipped; the rest of the update still applies.
func (s *Service) UpdateSearchPreferences(ctx context.Context, userID, searchTerm string, selectedTemplateIDs []string) error {
	if userID == "" {
		return stderrors.NewInvalidArgumentError("userId must not be empty")
	}
	if searchTerm == "" {
		return stderrors.NewInvalidArgumentError("searchTerm must not be empty")
	}

	selected := make([]models.TemplateRecord, 0, len(selectedTemplateIDs))
	for _, id := range selectedTemplateIDs {
		record, err := s.catalog.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to resolve selected template", map[string]interface{}{
				"userId":     userID,
				"templateId": id,
				"error":      err.Error(),
			})
			continue
		}
		if record != nil {
			selected = append(selected, *record)
		}
	}

	s.prefs.UpdateSearchPreferences(ctx, userID, searchTerm, selected)
	return nil
}

func filterCandidates(candidates []models.TemplateRecord, prefs *models.UserPreferenceRecord, opts models.RecommendationOptions) []models.TemplateRecord {
	var used map[string]bool
	if opts.ExcludeUsed && prefs != nil {
		used = prefs.UsedTemplateIDs()
	}

	var allowed map[models.TemplateCategory]bool
	if len(opts.Categories) > 0 {
		allowed = make(map[models.TemplateCategory]bool, len(opts.Categories))
		for _, category := range opts.Categories {
			allowed[category] = true
		}
	}

	filtered := candidates[:0]
	for _, candidate := range candidates {
		if used != nil && used[candidate.ID] {
			continue
		}
		if allowed != nil && !allowed[candidate.Category] {
			continue
		}
		filtered = append(filtered, candidate)
	}
	return filtered
}

func emptyResult() *models.RecommendationResult {
	return &models.RecommendationResult{
		Templates: []models.TemplateRecord{},
		Scores:    []models.RecommendationScore{},
	}
}
