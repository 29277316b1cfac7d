// internal/workers/marketplace/apply-match-ranking/models.go
package applymatchranking

import "sponsorloop-workers/internal/matching"

// Input takes the scored results of calculate-match-score. A missing limit
// uses the configured default; All ranks without truncation.
type Input struct {
	ScoredResults []matching.MatchResult `json:"scoredResults"`
	Limit         *int                   `json:"limit,omitempty"`
	All           bool                   `json:"all"`
}

type Output struct {
	RankedMatches []matching.MatchResult `json:"rankedMatches"`
	Count         int                    `json:"count"`
	TotalScored   int                    `json:"totalScored"`
}
