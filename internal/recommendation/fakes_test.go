// internal/recommendation/fakes_test.go
package recommendation

import (
	"context"
	"errors"
	"time"

	"template-recommender/internal/models"
)

var errUnavailable = errors.New("collaborator unavailable")

// fakeCatalog is an in-memory CatalogAccessor.
type fakeCatalog struct {
	templates []models.TemplateRecord
	failing   bool
}

func (f *fakeCatalog) Search(_ context.Context, filters models.CatalogFilters) ([]models.TemplateRecord, int, error) {
	if f.failing {
		return nil, 0, errUnavailable
	}

	var allowed map[models.TemplateCategory]bool
	if len(filters.Categories) > 0 {
		allowed = make(map[models.TemplateCategory]bool)
		for _, category := range filters.Categories {
			allowed[category] = true
		}
	}

	var matched []models.TemplateRecord
	for _, template := range f.templates {
		if filters.PublicOnly && !template.IsPublic {
			continue
		}
		if allowed != nil && !allowed[template.Category] {
			continue
		}
		if filters.MinRating > 0 && template.RatingAverage < filters.MinRating {
			continue
		}
		matched = append(matched, template)
	}

	if filters.SortByPopularity {
		for i := 1; i < len(matched); i++ {
			for j := i; j > 0 && matched[j].UsageCount > matched[j-1].UsageCount; j-- {
				matched[j], matched[j-1] = matched[j-1], matched[j]
			}
		}
	}

	total := len(matched)
	if filters.Size > 0 && len(matched) > filters.Size {
		matched = matched[:filters.Size]
	}
	return matched, total, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*models.TemplateRecord, error) {
	if f.failing {
		return nil, errUnavailable
	}
	for i := range f.templates {
		if f.templates[i].ID == id {
			record := f.templates[i]
			return &record, nil
		}
	}
	return nil, nil
}

// fakePreferenceRepo is an in-memory PreferenceRepository.
type fakePreferenceRepo struct {
	records     map[string]*models.UserPreferenceRecord
	failLoad    bool
	failUpsert  bool
	upsertCalls int
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{records: make(map[string]*models.UserPreferenceRecord)}
}

func (f *fakePreferenceRepo) Load(_ context.Context, userID string) (*models.UserPreferenceRecord, error) {
	if f.failLoad {
		return nil, errUnavailable
	}
	record, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakePreferenceRepo) Upsert(_ context.Context, record *models.UserPreferenceRecord) error {
	f.upsertCalls++
	if f.failUpsert {
		return errUnavailable
	}
	copied := *record
	f.records[record.UserID] = &copied
	return nil
}

// fakeAnalytics is an in-memory UsageAnalytics.
type fakeAnalytics struct {
	rows        []models.TemplateUsageCount
	failing     bool
	dailyCalls  int
	lastDaily   string
	lastDailyAt time.Time
}

func (f *fakeAnalytics) RecordDaily(_ context.Context, templateID, _ string, date time.Time) error {
	f.dailyCalls++
	f.lastDaily = templateID
	f.lastDailyAt = date
	if f.failing {
		return errUnavailable
	}
	return nil
}

func (f *fakeAnalytics) QueryWindow(_ context.Context, _ time.Time) ([]models.TemplateUsageCount, error) {
	if f.failing {
		return nil, errUnavailable
	}
	return f.rows, nil
}
