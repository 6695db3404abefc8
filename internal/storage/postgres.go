// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"
)

// PostgresPreferenceRepository persists preference records in a
// user_preferences table keyed by user_id, with the variable-shape
// collections held as JSONB columns.
//
// Schema:
//
//	CREATE TABLE user_preferences (
//	    user_id              TEXT PRIMARY KEY,
//	    preferred_categories JSONB NOT NULL DEFAULT '[]',
//	    preferred_tags       JSONB NOT NULL DEFAULT '[]',
//	    usage_history        JSONB NOT NULL DEFAULT '[]',
//	    search_history       JSONB NOT NULL DEFAULT '[]',
//	    ratings              JSONB NOT NULL DEFAULT '[]',
//	    last_updated         TIMESTAMPTZ NOT NULL
//	);
type PostgresPreferenceRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewPostgresPreferenceRepository creates a repository over the given pool.
func NewPostgresPreferenceRepository(db *sql.DB, log logger.Logger) *PostgresPreferenceRepository {
	return &PostgresPreferenceRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "preference-repository"}),
	}
}

const loadPreferencesQuery = `
	SELECT preferred_categories, preferred_tags, usage_history, search_history, ratings, last_updated
	FROM user_preferences WHERE user_id = $1`

const upsertPreferencesQuery = `
	INSERT INTO user_preferences
		(user_id, preferred_categories, preferred_tags, usage_history, search_history, ratings, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id) DO UPDATE SET
		preferred_categories = EXCLUDED.preferred_categories,
		preferred_tags = EXCLUDED.preferred_tags,
		usage_history = EXCLUDED.usage_history,
		search_history = EXCLUDED.search_history,
		ratings = EXCLUDED.ratings,
		last_updated = EXCLUDED.last_updated`

// Load returns the stored record, or (nil, nil) when the user has none yet.
func (r *PostgresPreferenceRepository) Load(ctx context.Context, userID string) (*models.UserPreferenceRecord, error) {
	row := r.db.QueryRowContext(ctx, loadPreferencesQuery, userID)

	var (
		categoriesRaw, tagsRaw, usageRaw, searchRaw, ratingsRaw []byte
		lastUpdated                                             time.Time
	)
	err := row.Scan(&categoriesRaw, &tagsRaw, &usageRaw, &searchRaw, &ratingsRaw, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences for %s: %w", userID, err)
	}

	record := models.NewUserPreferenceRecord(userID)
	record.LastUpdated = lastUpdated

	if err := json.Unmarshal(categoriesRaw, &record.PreferredCategories); err != nil {
		return nil, fmt.Errorf("decode preferred_categories for %s: %w", userID, err)
	}
	if err := json.Unmarshal(tagsRaw, &record.PreferredTags); err != nil {
		return nil, fmt.Errorf("decode preferred_tags for %s: %w", userID, err)
	}
	if err := json.Unmarshal(usageRaw, &record.UsageHistory); err != nil {
		return nil, fmt.Errorf("decode usage_history for %s: %w", userID, err)
	}
	if err := json.Unmarshal(searchRaw, &record.SearchHistory); err != nil {
		return nil, fmt.Errorf("decode search_history for %s: %w", userID, err)
	}
	if err := json.Unmarshal(ratingsRaw, &record.Ratings); err != nil {
		return nil, fmt.Errorf("decode ratings for %s: %w", userID, err)
	}

	return record, nil
}

// Upsert writes the whole record, inserting it on first save.
func (r *PostgresPreferenceRepository) Upsert(ctx context.Context, record *models.UserPreferenceRecord) error {
	categoriesRaw, err := json.Marshal(record.PreferredCategories)
	if err != nil {
		return fmt.Errorf("encode preferred_categories: %w", err)
	}
	tagsRaw, err := json.Marshal(record.PreferredTags)
	if err != nil {
		return fmt.Errorf("encode preferred_tags: %w", err)
	}
	usageRaw, err := json.Marshal(record.UsageHistory)
	if err != nil {
		return fmt.Errorf("encode usage_history: %w", err)
	}
	searchRaw, err := json.Marshal(record.SearchHistory)
	if err != nil {
		return fmt.Errorf("encode search_history: %w", err)
	}
	ratingsRaw, err := json.Marshal(record.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, upsertPreferencesQuery,
		record.UserID, categoriesRaw, tagsRaw, usageRaw, searchRaw, ratingsRaw, record.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert preferences for %s: %w", record.UserID, err)
	}

	return nil
}
