// Package matching turns a resident candidate list into a filtered, scored
// and ranked result set. It performs no I/O: candidates must already be
// loaded by a profile store, and every stage except the score strategy is
// pure and order preserving.
//
// Pipeline: candidates -> Filter -> Scorer -> Rank(limit)
package matching

import (
	"errors"
	"strings"

	"sponsorloop-workers/internal/models"
)

// CategoryAll disables the category restriction of a SearchQuery.
const CategoryAll = "All"

var ErrInvalidLimit = errors.New("INVALID_LIMIT")

// SearchQuery is the immutable input of the filter stage.
type SearchQuery struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewSearchQuery trims the text and maps an empty category to CategoryAll.
func NewSearchQuery(text, category string) SearchQuery {
	category = strings.TrimSpace(category)
	if category == "" {
		category = CategoryAll
	}
	return SearchQuery{Text: strings.TrimSpace(text), Category: category}
}

func (q SearchQuery) restrictsCategory() bool {
	return q.Category != "" && q.Category != CategoryAll
}

// MatchResult pairs a candidate with its score and the reasons shown to the
// viewer. Profile is a copy of the candidate and is never mutated here.
type MatchResult struct {
	Profile models.Profile `json:"profile"`
	Score   int            `json:"score"`
	Reasons []string       `json:"reasons"`
}
