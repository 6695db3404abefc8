// internal/recommendation/ports.go
package recommendation

import (
	"context"
	"time"

	"template-recommender/internal/models"
)

// CatalogAccessor is the read-only source of template records. The engine
// consumes it, never owns it.
type CatalogAccessor interface {
	// Search returns the matching templates and the total match count.
	Search(ctx context.Context, filters models.CatalogFilters) ([]models.TemplateRecord, int, error)
	// GetByID returns the template with the given id, or (nil, nil) when it
	// does not exist.
	GetByID(ctx context.Context, id string) (*models.TemplateRecord, error)
}

// PreferenceRepository persists user preference records.
type PreferenceRepository interface {
	// Load returns the stored record for the user, or (nil, nil) when none
	// exists yet.
	Load(ctx context.Context, userID string) (*models.UserPreferenceRecord, error)
	Upsert(ctx context.Context, record *models.UserPreferenceRecord) error
}

// UsageAnalytics aggregates daily template usage.
type UsageAnalytics interface {
	// RecordDaily increments the usage count for the template on the given
	// day. The increment is idempotent per template+user+day.
	RecordDaily(ctx context.Context, templateID, userID string, date time.Time) error
	// QueryWindow returns per-template usage counts accumulated since the
	// given date, sorted by count descending.
	QueryWindow(ctx context.Context, since time.Time) ([]models.TemplateUsageCount, error)
}
