// internal/models/template.go
package models

// TemplateCategory is the closed set of business domains a template belongs to.
type TemplateCategory string

const (
	CategorySales       TemplateCategory = "sales"
	CategoryMarketing   TemplateCategory = "marketing"
	CategorySupport     TemplateCategory = "support"
	CategoryHR          TemplateCategory = "hr"
	CategoryFinance     TemplateCategory = "finance"
	CategoryOperations  TemplateCategory = "operations"
	CategoryProduct     TemplateCategory = "product"
	CategoryEngineering TemplateCategory = "engineering"
	CategoryLegal       TemplateCategory = "legal"
	CategoryEducation   TemplateCategory = "education"
)

// AllCategories lists every valid template category.
var AllCategories = []TemplateCategory{
	CategorySales,
	CategoryMarketing,
	CategorySupport,
	CategoryHR,
	CategoryFinance,
	CategoryOperations,
	CategoryProduct,
	CategoryEngineering,
	CategoryLegal,
	CategoryEducation,
}

// Valid reports whether c is one of the known categories.
func (c TemplateCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TemplateRecord is a catalog entry for a persona template. Records are owned
// by the catalog; the recommendation engine treats them as immutable within a
// single call.
type TemplateRecord struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      TemplateCategory `json:"category"`
	Tags          []string         `json:"tags"`
	Description   string           `json:"description"`
	RatingAverage float64          `json:"ratingAverage"`
	UsageCount    int              `json:"usageCount"`
	IsPublic      bool             `json:"isPublic"`
}

// HasTag reports whether the template carries the given tag.
func (t *TemplateRecord) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TemplateUsageCount is one row of a windowed usage aggregation.
type TemplateUsageCount struct {
	TemplateID string `json:"templateId"`
	UsageCount int    `json:"usageCount"`
}
