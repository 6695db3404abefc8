// internal/recommendation/scoring_test.go
package recommendation

import (
	"math"
	"testing"
	"time"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	return NewScorer(logger.NewTestLogger(t))
}

func preferencesWithHistory(events, completed int) *models.UserPreferenceRecord {
	record := models.NewUserPreferenceRecord("user-1")
	for i := 0; i < events; i++ {
		record.UsageHistory = append(record.UsageHistory, models.UsageEvent{
			TemplateID: "historic",
			UsedAt:     time.Now().Add(-time.Duration(i) * time.Hour),
			Completed:  i < completed,
		})
	}
	return record
}

func TestScorer_BaseScoreOnly(t *testing.T) {
	scorer := newTestScorer(t)

	candidate := models.TemplateRecord{
		ID:            "tpl-1",
		Category:      models.CategoryFinance,
		RatingAverage: 3.0,
		UsageCount:    4,
	}

	scores := scorer.Score(nil, []models.TemplateRecord{candidate}, true)
	require.Len(t, scores, 1)

	expected := 3.0*0.3 + math.Log(5)*0.2
	assert.InDelta(t, expected, scores[0].Score, 1e-9)
	assert.Empty(t, scores[0].Reasons)
	assert.Equal(t, 0.5, scores[0].Confidence)
}

func TestScorer_EngagedUserScenario(t *testing.T) {
	scorer := newTestScorer(t)

	candidate := models.TemplateRecord{
		ID:            "tpl-sales",
		Category:      models.CategorySales,
		Tags:          []string{"lead-generation"},
		RatingAverage: 4.8,
		UsageCount:    25,
	}

	prefs := preferencesWithHistory(10, 4)
	prefs.AddCategory(models.CategorySales)
	prefs.AddTag("lead-generation")

	scores := scorer.Score(prefs, []models.TemplateRecord{candidate}, true)
	require.Len(t, scores, 1)
	result := scores[0]

	base := 4.8*0.3 + math.Log(26)*0.2
	assert.InDelta(t, base, 2.65, 0.01)
	assert.Greater(t, result.Score, 6.4)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)

	kinds := make(map[models.ReasonType]models.RecommendationReason)
	for _, reason := range result.Reasons {
		kinds[reason.Type] = reason
	}
	assert.Contains(t, kinds, models.ReasonCategoryMatch)
	assert.Contains(t, kinds, models.ReasonTagMatch)
	assert.Contains(t, kinds, models.ReasonTrending)
	assert.Contains(t, kinds, models.ReasonRating)
	assert.Contains(t, kinds, models.ReasonUsagePattern)

	assert.Equal(t, 2.0, kinds[models.ReasonCategoryMatch].Weight)
	assert.Equal(t, 0.5, kinds[models.ReasonTagMatch].Weight)
	assert.Contains(t, kinds[models.ReasonTagMatch].Description, "lead-generation")
	assert.Contains(t, kinds[models.ReasonRating].Description, "4.8")
}

func TestScorer_ReasonsFlagDoesNotChangeScore(t *testing.T) {
	scorer := newTestScorer(t)

	candidate := models.TemplateRecord{
		ID:            "tpl-1",
		Category:      models.CategorySupport,
		Tags:          []string{"customer-support"},
		RatingAverage: 4.5,
		UsageCount:    30,
	}
	prefs := preferencesWithHistory(6, 3)
	prefs.AddCategory(models.CategorySupport)
	prefs.AddTag("customer-support")

	withReasons := scorer.Score(prefs, []models.TemplateRecord{candidate}, true)
	withoutReasons := scorer.Score(prefs, []models.TemplateRecord{candidate}, false)

	require.Len(t, withReasons, 1)
	require.Len(t, withoutReasons, 1)
	assert.Equal(t, withReasons[0].Score, withoutReasons[0].Score)
	assert.NotEmpty(t, withReasons[0].Reasons)
	assert.Empty(t, withoutReasons[0].Reasons)
}

func TestScorer_TagMatchScalesPerTag(t *testing.T) {
	scorer := newTestScorer(t)

	candidate := models.TemplateRecord{
		ID:       "tpl-1",
		Category: models.CategoryMarketing,
		Tags:     []string{"social-media", "content-creation", "reporting"},
	}
	prefs := models.NewUserPreferenceRecord("user-1")
	prefs.AddTag("social-media")
	prefs.AddTag("reporting")

	scores := scorer.Score(prefs, []models.TemplateRecord{candidate}, true)
	require.Len(t, scores, 1)

	var tagReason *models.RecommendationReason
	for i := range scores[0].Reasons {
		if scores[0].Reasons[i].Type == models.ReasonTagMatch {
			tagReason = &scores[0].Reasons[i]
		}
	}
	require.NotNil(t, tagReason)
	assert.Equal(t, 1.0, tagReason.Weight)
}

func TestUsagePatternScore(t *testing.T) {
	tests := []struct {
		name      string
		prefs     *models.UserPreferenceRecord
		candidate models.TemplateRecord
		expected  float64
	}{
		{
			name:      "nil preferences contribute nothing",
			prefs:     nil,
			candidate: models.TemplateRecord{Category: models.CategorySales},
			expected:  0,
		},
		{
			name:      "empty history contributes nothing",
			prefs:     models.NewUserPreferenceRecord("user-1"),
			candidate: models.TemplateRecord{Category: models.CategorySales},
			expected:  0,
		},
		{
			name:      "history volume capped at 0.5",
			prefs:     preferencesWithHistory(50, 0),
			candidate: models.TemplateRecord{Category: models.CategoryLegal},
			expected:  0.5,
		},
		{
			name:      "completion ratio adds up to 0.3",
			prefs:     preferencesWithHistory(2, 2),
			candidate: models.TemplateRecord{Category: models.CategoryLegal},
			expected:  0.2 + 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, usagePatternScore(tt.prefs, &tt.candidate), 1e-9)
		})
	}
}

func TestUsagePatternScore_Clamped(t *testing.T) {
	prefs := preferencesWithHistory(50, 50)
	prefs.AddCategory(models.CategorySales)
	for _, tag := range []string{"a", "b", "c", "d"} {
		prefs.AddTag(tag)
	}
	candidate := models.TemplateRecord{
		Category: models.CategorySales,
		Tags:     []string{"a", "b", "c", "d"},
	}

	// 0.5 + 0.3 + 0.6 + 0.4 = 1.8, inside the cap; adding more signal
	// cannot push past 2.0.
	score := usagePatternScore(prefs, &candidate)
	assert.LessOrEqual(t, score, 2.0)
	assert.InDelta(t, 1.8, score, 1e-9)
}

func TestConfidence_Bounds(t *testing.T) {
	manyTags := models.NewUserPreferenceRecord("user-1")
	for _, tag := range []string{"a", "b", "c", "d", "e", "f"} {
		manyTags.AddTag(tag)
	}
	fullEvidence := preferencesWithHistory(10, 5)
	for _, tag := range []string{"a", "b", "c", "d", "e", "f"} {
		fullEvidence.AddTag(tag)
	}

	tests := []struct {
		name      string
		prefs     *models.UserPreferenceRecord
		candidate models.TemplateRecord
		expected  float64
	}{
		{
			name:      "no evidence",
			prefs:     nil,
			candidate: models.TemplateRecord{},
			expected:  0.5,
		},
		{
			name:      "moderate template usage",
			prefs:     nil,
			candidate: models.TemplateRecord{UsageCount: 6},
			expected:  0.7,
		},
		{
			name:      "heavy template usage",
			prefs:     nil,
			candidate: models.TemplateRecord{UsageCount: 21},
			expected:  0.8,
		},
		{
			name:      "rich preference evidence",
			prefs:     manyTags,
			candidate: models.TemplateRecord{},
			expected:  0.6,
		},
		{
			name:      "all evidence present clamps at 1.0",
			prefs:     fullEvidence,
			candidate: models.TemplateRecord{UsageCount: 100},
			expected:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := confidence(tt.prefs, &tt.candidate)
			assert.InDelta(t, tt.expected, value, 1e-9)
			assert.GreaterOrEqual(t, value, 0.0)
			assert.LessOrEqual(t, value, 1.0)
		})
	}
}
