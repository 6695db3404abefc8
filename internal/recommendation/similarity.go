// internal/recommendation/similarity.go
package recommendation

import (
	"strings"
	"unicode"

	"template-recommender/internal/models"
)

// Similarity weights. The composition keeps results roughly inside [0, 1],
// but the value is a relative ranking signal, not a probability.
const (
	similarityCategoryWeight    = 0.3
	similarityTagWeight         = 0.4
	similarityDescriptionWeight = 0.3
)

// Minimum token length considered meaningful for description overlap.
const minDescriptionTokenLen = 4

// Similarity computes a similarity score between two template records. Pure
// function, no state. Both overlap terms divide by the larger set, so the
// value is symmetric in its arguments.
func Similarity(a, b *models.TemplateRecord) float64 {
	score := 0.0

	if a.Category == b.Category {
		score += similarityCategoryWeight
	}

	score += similarityTagWeight * tagOverlap(a.Tags, b.Tags)
	score += similarityDescriptionWeight * descriptionOverlap(a.Description, b.Description)

	return score
}

// tagOverlap returns |a ∩ b| / max(|a|, |b|), or 0 when either set is empty.
func tagOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setB := make(map[string]bool, len(b))
	for _, tag := range b {
		setB[tag] = true
	}

	common := 0
	for _, tag := range a {
		if setB[tag] {
			common++
		}
	}

	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(common) / float64(larger)
}

// descriptionOverlap returns the fraction of meaningful words the two
// descriptions share, relative to the larger word set.
func descriptionOverlap(a, b string) float64 {
	wordsA := descriptionWordSet(a)
	wordsB := descriptionWordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for word := range wordsA {
		if wordsB[word] {
			common++
		}
	}

	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(common) / float64(larger)
}

// descriptionWordSet tokenizes a description into its set of lowercase words
// longer than three characters.
func descriptionWordSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]bool, len(words))
	for _, word := range words {
		if len(word) >= minDescriptionTokenLen {
			set[word] = true
		}
	}
	return set
}
