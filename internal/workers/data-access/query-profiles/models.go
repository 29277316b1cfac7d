// internal/workers/data-access/query-profiles/models.go
package queryprofiles

import (
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

type Input struct {
	CandidateRole models.Role          `json:"candidateRole"`
	SearchQuery   matching.SearchQuery `json:"searchQuery"`
}

type Output struct {
	Candidates []models.Profile `json:"candidates"`
	Count      int              `json:"count"`
	Truncated  bool             `json:"truncated"`
}
