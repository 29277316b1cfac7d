package matching

import (
	"fmt"

	"sponsorloop-workers/internal/models"
)

// Engine runs the filter, score and rank stages over resident candidates.
// It is safe for concurrent use when its Strategy is.
type Engine struct {
	scorer *Scorer
}

func NewEngine(strategy Strategy) *Engine {
	return &Engine{scorer: NewScorer(strategy)}
}

// Scorer exposes the engine's scorer for callers that run stages one by one.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Match returns at most limit results. A non-positive limit is a caller
// error and is rejected before any work is done.
func (e *Engine) Match(candidates []models.Profile, q SearchQuery, viewer models.ViewerContext, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidLimit, limit)
	}
	return Rank(e.score(candidates, q, viewer), limit)
}

// MatchAll is Match without truncation.
func (e *Engine) MatchAll(candidates []models.Profile, q SearchQuery, viewer models.ViewerContext) []MatchResult {
	return RankAll(e.score(candidates, q, viewer))
}

func (e *Engine) score(candidates []models.Profile, q SearchQuery, viewer models.ViewerContext) []MatchResult {
	filtered := Filter(candidates, q)
	results := make([]MatchResult, 0, len(filtered))
	for _, p := range filtered {
		results = append(results, e.scorer.Score(p, viewer))
	}
	return results
}
