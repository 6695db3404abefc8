// internal/models/preferences.go
package models

import "time"

// History bounds for a preference record. Oldest entries are evicted first
// when a bound is exceeded.
const (
	MaxUsageHistory  = 50
	MaxSearchHistory = 20
)

// UsageEvent records a single instance of a user applying a template.
// Customizations is the only intentionally open map in the data model; its
// shape is user-defined.
type UsageEvent struct {
	TemplateID      string                 `json:"templateId"`
	UsedAt          time.Time              `json:"usedAt"`
	Completed       bool                   `json:"completed"`
	Customizations  map[string]interface{} `json:"customizations,omitempty"`
	DurationSeconds int                    `json:"durationSeconds,omitempty"`
}

// TemplateRating is one rating a user gave a template.
type TemplateRating struct {
	TemplateID string    `json:"templateId"`
	Rating     float64   `json:"rating"`
	RatedAt    time.Time `json:"ratedAt"`
}

// UserPreferenceRecord is the durable per-user state used to personalize
// scoring. Exactly one record exists per user; absence is a valid initial
// state and is materialized lazily with empty collections.
type UserPreferenceRecord struct {
	UserID              string             `json:"userId"`
	PreferredCategories []TemplateCategory `json:"preferredCategories"`
	PreferredTags       []string           `json:"preferredTags"`
	UsageHistory        []UsageEvent       `json:"usageHistory"`
	SearchHistory       []string           `json:"searchHistory"`
	Ratings             []TemplateRating   `json:"ratings"`
	LastUpdated         time.Time          `json:"lastUpdated"`
}

// NewUserPreferenceRecord returns an empty record for the given user.
func NewUserPreferenceRecord(userID string) *UserPreferenceRecord {
	return &UserPreferenceRecord{
		UserID:              userID,
		PreferredCategories: []TemplateCategory{},
		PreferredTags:       []string{},
		UsageHistory:        []UsageEvent{},
		SearchHistory:       []string{},
		Ratings:             []TemplateRating{},
		LastUpdated:         time.Now().UTC(),
	}
}

// HasCategory reports whether the category is already preferred.
func (r *UserPreferenceRecord) HasCategory(category TemplateCategory) bool {
	for _, existing := range r.PreferredCategories {
		if existing == category {
			return true
		}
	}
	return false
}

// HasTag reports whether the tag is already preferred.
func (r *UserPreferenceRecord) HasTag(tag string) bool {
	for _, existing := range r.PreferredTags {
		if existing == tag {
			return true
		}
	}
	return false
}

// AddCategory merges a category into the preferred set. Adding an existing
// value is a no-op.
func (r *UserPreferenceRecord) AddCategory(category TemplateCategory) {
	if !r.HasCategory(category) {
		r.PreferredCategories = append(r.PreferredCategories, category)
	}
}

// AddTag merges a tag into the preferred set. Adding an existing value is a
// no-op.
func (r *UserPreferenceRecord) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.PreferredTags = append(r.PreferredTags, tag)
	}
}

// UsedTemplateIDs returns the set of template ids present in the usage
// history.
func (r *UserPreferenceRecord) UsedTemplateIDs() map[string]bool {
	used := make(map[string]bool, len(r.UsageHistory))
	for _, event := range r.UsageHistory {
		used[event.TemplateID] = true
	}
	return used
}
