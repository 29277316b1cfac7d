// internal/workers/marketplace/find-matches/models.go
package findmatches

import (
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

type Input struct {
	Viewer   models.ViewerContext `json:"viewer"`
	Text     string               `json:"text"`
	Category string               `json:"category"`
	Limit    *int                 `json:"limit,omitempty"`
}

type Output struct {
	Matches []matching.MatchResult `json:"matches"`
	Count   int                    `json:"count"`
	EventID string                 `json:"eventId,omitempty"`
}
