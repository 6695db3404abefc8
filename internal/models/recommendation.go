// internal/models/recommendation.go
package models

// ReasonType identifies which scoring factor produced a reason.
type ReasonType string

const (
	ReasonCategoryMatch ReasonType = "category_match"
	ReasonTagMatch      ReasonType = "tag_match"
	ReasonSimilarUsers  ReasonType = "similar_users"
	ReasonTrending      ReasonType = "trending"
	ReasonRating        ReasonType = "rating"
	ReasonUsagePattern  ReasonType = "usage_pattern"
)

// RecommendationReason explains one weighted contribution to a score.
type RecommendationReason struct {
	Type        ReasonType `json:"type"`
	Description string     `json:"description"`
	Weight      float64    `json:"weight"`
}

// RecommendationScore is the scored result for a single candidate template.
// Score is unbounded above; Confidence is always within [0, 1] and reflects
// evidence volume, not score magnitude.
type RecommendationScore struct {
	TemplateID string                 `json:"templateId"`
	Score      float64                `json:"score"`
	Reasons    []RecommendationReason `json:"reasons,omitempty"`
	Confidence float64                `json:"confidence"`
}

// RecommendationOptions controls a single recommendation request.
type RecommendationOptions struct {
	Limit          int                `json:"limit"`
	ExcludeUsed    bool               `json:"excludeUsed"`
	Categories     []TemplateCategory `json:"categories,omitempty"`
	MinRating      float64            `json:"minRating"`
	IncludeReasons bool               `json:"includeReasons"`
}

// RecommendationResult pairs the returned templates with their scores, in the
// same order.
type RecommendationResult struct {
	Templates []TemplateRecord      `json:"templates"`
	Scores    []RecommendationScore `json:"scores"`
}

// Timeframe is a trailing window over which usage counts are aggregated.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// Valid reports whether t is a known timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return true
	}
	return false
}

// Days converts the timeframe to its window size in days.
func (t Timeframe) Days() int {
	switch t {
	case TimeframeDay:
		return 1
	case TimeframeMonth:
		return 30
	default:
		return 7
	}
}
