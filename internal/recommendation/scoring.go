// internal/recommendation/scoring.go
package recommendation

import (
	"fmt"
	"math"
	"strings"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"
)

// Scoring weights. The category/tag signals contribute both to the top-level
// bonuses and to the usage-pattern sub-score; the double counting is additive
// by design.
const (
	ratingWeight   = 0.3
	usageLogWeight = 0.2

	categoryMatchBonus = 2.0
	tagMatchBonus      = 0.5

	trendingBonus          = 0.5
	trendingUsageThreshold = 10

	highRatingBonus     = 0.8
	highRatingThreshold = 4.0

	usagePatternCap = 2.0
)

// Scorer computes weighted recommendation scores with explanations and a
// confidence estimate for (user, template) pairs.
type Scorer struct {
	logger logger.Logger
}

// NewScorer creates a scoring engine.
func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{
		logger: log.WithFields(map[string]interface{}{"component": "scorer"}),
	}
}

// Score computes a RecommendationScore for every candidate. Preferences may
// be nil for anonymous or brand-new users; the base score and catalog-derived
// bonuses still apply. Reasons are collected only when includeReasons is
// true; the numeric score is identical either way.
func (s *Scorer) Score(prefs *models.UserPreferenceRecord, candidates []models.TemplateRecord, includeReasons bool) []models.RecommendationScore {
	scores := make([]models.RecommendationScore, 0, len(candidates))
	for i := range candidates {
		scores = append(scores, s.scoreOne(prefs, &candidates[i], includeReasons))
	}
	return scores
}

func (s *Scorer) scoreOne(prefs *models.UserPreferenceRecord, candidate *models.TemplateRecord, includeReasons bool) models.RecommendationScore {
	var reasons []models.RecommendationReason
	addReason := func(kind models.ReasonType, description string, weight float64) {
		if includeReasons {
			reasons = append(reasons, models.RecommendationReason{
				Type:        kind,
				Description: description,
				Weight:      weight,
			})
		}
	}

	// Base score from catalog signals, always present.
	score := candidate.RatingAverage*ratingWeight + math.Log(float64(candidate.UsageCount)+1)*usageLogWeight

	if prefs != nil && prefs.HasCategory(candidate.Category) {
		score += categoryMatchBonus
		addReason(models.ReasonCategoryMatch,
			fmt.Sprintf("Matches your preferred category %q", candidate.Category),
			categoryMatchBonus)
	}

	if prefs != nil {
		matched := matchingTags(candidate.Tags, prefs)
		if len(matched) > 0 {
			weight := tagMatchBonus * float64(len(matched))
			score += weight
			addReason(models.ReasonTagMatch,
				fmt.Sprintf("Matches your interests: %s", strings.Join(matched, ", ")),
				weight)
		}
	}

	if patternScore := usagePatternScore(prefs, candidate); patternScore > 0 {
		score += patternScore
		addReason(models.ReasonUsagePattern,
			"Similar to templates you have used before",
			patternScore)
	}

	if candidate.UsageCount > trendingUsageThreshold {
		score += trendingBonus
		addReason(models.ReasonTrending,
			fmt.Sprintf("Popular template with %d uses", candidate.UsageCount),
			trendingBonus)
	}

	if candidate.RatingAverage >= highRatingThreshold {
		score += highRatingBonus
		addReason(models.ReasonRating,
			fmt.Sprintf("Highly rated at %.1f stars", candidate.RatingAverage),
			highRatingBonus)
	}

	return models.RecommendationScore{
		TemplateID: candidate.ID,
		Score:      score,
		Reasons:    reasons,
		Confidence: confidence(prefs, candidate),
	}
}

func matchingTags(tags []string, prefs *models.UserPreferenceRecord) []string {
	var matched []string
	for _, tag := range tags {
		if prefs.HasTag(tag) {
			matched = append(matched, tag)
		}
	}
	return matched
}

// usagePatternScore combines history volume, completion rate and
// candidate/preference overlap into a sub-score bounded to [0, 2.0].
func usagePatternScore(prefs *models.UserPreferenceRecord, candidate *models.TemplateRecord) float64 {
	if prefs == nil || len(prefs.UsageHistory) == 0 {
		return 0
	}

	score := 0.0

	// Up to 0.5 for accumulated history volume.
	score += math.Min(float64(len(prefs.UsageHistory))*0.1, 0.5)

	// Up to 0.3 for the fraction of usages the user completed.
	completed := 0
	for _, event := range prefs.UsageHistory {
		if event.Completed {
			completed++
		}
	}
	score += float64(completed) / float64(len(prefs.UsageHistory)) * 0.3

	// Up to 0.6 for overlap between candidate tags and preferred tags.
	overlap := len(matchingTags(candidate.Tags, prefs))
	score += math.Min(float64(overlap)*0.2, 0.6)

	if prefs.HasCategory(candidate.Category) {
		score += 0.4
	}

	return math.Min(score, usagePatternCap)
}

// confidence estimates how much evidence supports a score, independent of
// the score's magnitude. Always within [0, 1].
func confidence(prefs *models.UserPreferenceRecord, candidate *models.TemplateRecord) float64 {
	value := 0.5

	if candidate.UsageCount > 5 {
		value += 0.2
	}
	if candidate.UsageCount > 20 {
		value += 0.1
	}
	if prefs != nil && len(prefs.UsageHistory) > 3 {
		value += 0.1
	}
	if prefs != nil && len(prefs.PreferredTags) > 5 {
		value += 0.1
	}

	return math.Min(value, 1.0)
}
