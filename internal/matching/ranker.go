package matching

import (
	"fmt"
	"sort"
)

// Rank orders results by score, then rating, both descending, keeping the
// input order for full ties, and truncates to limit. The input slice is not
// reordered.
func Rank(results []MatchResult, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidLimit, limit)
	}
	ranked := RankAll(results)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// RankAll is Rank without truncation, used by the dashboard grid.
func RankAll(results []MatchResult) []MatchResult {
	ranked := make([]MatchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Profile.Rating > ranked[j].Profile.Rating
	})
	return ranked
}
