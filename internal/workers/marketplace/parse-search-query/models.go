// internal/workers/marketplace/parse-search-query/models.go
package parsesearchquery

import (
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

// Input carries the filters exactly as the presentation layer sent them.
// rawFilters.role is the viewer's role.
type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	SearchQuery   matching.SearchQuery `json:"searchQuery"`
	ViewerRole    models.Role          `json:"viewerRole"`
	CandidateRole models.Role          `json:"candidateRole"`
	Limit         int                  `json:"limit"`
	All           bool                 `json:"all"`
}
