// internal/recommendation/preferences.go
package recommendation

import (
	"context"
	"strings"
	"sync"
	"time"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/common/metrics"
	"template-recommender/internal/models"
)

// searchVocabulary maps keywords found in raw search text to catalog tags.
// Matching is case-insensitive substring matching against the fixed keys.
var searchVocabulary = map[string][]string{
	"sales":     {"sales", "lead-generation"},
	"lead":      {"lead-generation"},
	"email":     {"email-automation"},
	"outreach":  {"outreach", "email-automation"},
	"support":   {"customer-support"},
	"ticket":    {"customer-support", "ticketing"},
	"onboard":   {"onboarding"},
	"market":    {"marketing"},
	"social":    {"social-media"},
	"content":   {"content-creation"},
	"report":    {"reporting"},
	"analytic":  {"analytics", "reporting"},
	"invoice":   {"invoicing"},
	"recruit":   {"recruiting"},
	"interview": {"recruiting", "interview-prep"},
	"legal":     {"contract-review"},
	"contract":  {"contract-review"},
	"research":  {"research"},
	"summar":    {"summarization"},
	"translat":  {"translation"},
}

// PreferenceStore loads, caches and persists per-user preference records.
//
// The cache is a process-wide map with no eviction; it grows with the number
// of distinct users seen by this process. That is acceptable for a
// session-scoped process; a long-lived server should bound it with an LRU or
// TTL policy. Concurrent mutations of the same user's record are
// last-write-wins; usage and search recording are best-effort telemetry, not
// transactions.
type PreferenceStore struct {
	repo   PreferenceRepository
	logger logger.Logger

	mu    sync.RWMutex
	cache map[string]*models.UserPreferenceRecord
}

// NewPreferenceStore creates a store backed by the given repository.
func NewPreferenceStore(repo PreferenceRepository, log logger.Logger) *PreferenceStore {
	return &PreferenceStore{
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"component": "preference-store"}),
		cache:  make(map[string]*models.UserPreferenceRecord),
	}
}

// Get returns the user's preference record. A missing record is not an
// error: the store creates, persists and caches an empty one. Only transient
// repository failures are returned.
func (s *PreferenceStore) Get(ctx context.Context, userID string) (*models.UserPreferenceRecord, error) {
	s.mu.RLock()
	cached, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		metrics.PreferenceCacheHits.Inc()
		return cached, nil
	}
	metrics.PreferenceCacheMisses.Inc()

	record, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if record == nil {
		record = models.NewUserPreferenceRecord(userID)
		if err := s.repo.Upsert(ctx, record); err != nil {
			// The caller still gets a usable default; persistence of the
			// empty record is retried on the next mutation.
			s.logger.Warn("failed to persist initial preference record", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}

	s.mu.Lock()
	s.cache[userID] = record
	s.mu.Unlock()

	return record, nil
}

// Save stamps lastUpdated, persists the record and updates the cache so
// subsequent Get calls observe the new state immediately.
func (s *PreferenceStore) Save(ctx context.Context, record *models.UserPreferenceRecord) error {
	record.LastUpdated = time.Now().UTC()

	if err := s.repo.Upsert(ctx, record); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[record.UserID] = record
	s.mu.Unlock()

	return nil
}

// RecordUsage appends a usage event to the user's history, evicting the
// oldest entries beyond the bound. Persistence failures are logged and
// swallowed; usage recording must never fail the user action that caused it.
func (s *PreferenceStore) RecordUsage(ctx context.Context, userID, templateID string, usage models.UsageEvent) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load preferences for usage recording", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}

	usage.TemplateID = templateID
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.Now().UTC()
	}

	record.UsageHistory = append(record.UsageHistory, usage)
	if len(record.UsageHistory) > models.MaxUsageHistory {
		record.UsageHistory = record.UsageHistory[len(record.UsageHistory)-models.MaxUsageHistory:]
	}

	if err := s.Save(ctx, record); err != nil {
		metrics.PreferenceWriteFailures.Inc()
		s.logger.Warn("failed to persist usage event", map[string]interface{}{
			"userId":     userID,
			"templateId": templateID,
			"error":      err.Error(),
		})
	}
}

// RecordRating appends a rating to the user's preference record. Best-effort,
// like usage recording.
func (s *PreferenceStore) RecordRating(ctx context.Context, userID, templateID string, rating float64) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load preferences for rating recording", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}

	record.Ratings = append(record.Ratings, models.TemplateRating{
		TemplateID: templateID,
		Rating:     rating,
		RatedAt:    time.Now().UTC(),
	})

	if err := s.Save(ctx, record); err != nil {
		metrics.PreferenceWriteFailures.Inc()
		s.logger.Warn("failed to persist rating", map[string]interface{}{
			"userId":     userID,
			"templateId": templateID,
			"error":      err.Error(),
		})
	}
}

// UpdateSearchPreferences appends the search term to the bounded search
// history, merges tags extracted from the term via the fixed vocabulary, and
// merges each selected template's category and tags into the preferred sets.
// All merges are set-union, so repeating a call changes nothing. Persistence
// failures are logged and swallowed.
func (s *PreferenceStore) UpdateSearchPreferences(ctx context.Context, userID, searchTerm string, selected []models.TemplateRecord) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load preferences for search recording", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}

	record.SearchHistory = append(record.SearchHistory, searchTerm)
	if len(record.SearchHistory) > models.MaxSearchHistory {
		record.SearchHistory = record.SearchHistory[len(record.SearchHistory)-models.MaxSearchHistory:]
	}

	for _, tag := range ExtractSearchTags(searchTerm) {
		record.AddTag(tag)
	}

	for i := range selected {
		if selected[i].Category.Valid() {
			record.AddCategory(selected[i].Category)
		}
		for _, tag := range selected[i].Tags {
			record.AddTag(tag)
		}
	}

	if err := s.Save(ctx, record); err != nil {
		metrics.PreferenceWriteFailures.Inc()
		s.logger.Warn("failed to persist search preferences", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

// Invalidate drops a single user's record from the cache.
func (s *PreferenceStore) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

// ClearCache drops every cached record.
func (s *PreferenceStore) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]*models.UserPreferenceRecord)
	s.mu.Unlock()
}

// ExtractSearchTags maps free search text to candidate tags using the fixed
// keyword vocabulary.
func ExtractSearchTags(searchTerm string) []string {
	lowered := strings.ToLower(searchTerm)

	seen := make(map[string]bool)
	var tags []string
	for keyword, mapped := range searchVocabulary {
		if !strings.Contains(lowered, keyword) {
			continue
		}
		for _, tag := range mapped {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
