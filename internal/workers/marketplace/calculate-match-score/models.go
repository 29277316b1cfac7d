// internal/workers/marketplace/calculate-match-score/models.go
package calculatematchscore

import (
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

type Input struct {
	Candidates []models.Profile      `json:"candidates"`
	Viewer     models.ViewerContext  `json:"viewer"`
	Query      *matching.SearchQuery `json:"searchQuery,omitempty"`
}

type Output struct {
	ScoredResults []matching.MatchResult `json:"scoredResults"`
	Viewer        models.ViewerContext   `json:"viewer"`
}
