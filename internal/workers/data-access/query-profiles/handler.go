// internal/workers/data-access/query-profiles/handler.go
package queryprofiles

import (
	"context"
	"encoding/json"
	"fmt"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"
)

const TaskType = "query-profiles"

type Handler struct {
	config *Config
	store  profilestore.Store
	logger logger.Logger
}

func NewHandler(config *Config, store profilestore.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) HandleJob(ctx context.Context, variables string) (interface{}, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

// Execute loads the candidates for one role. An empty query lists the whole
// role so a snapshot cache can serve it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.CandidateRole.Valid() {
		return nil, errors.NewInvalidRoleError(string(input.CandidateRole))
	}
	q := matching.NewSearchQuery(input.SearchQuery.Text, input.SearchQuery.Category)

	var (
		candidates []models.Profile
		err        error
	)
	if q.Text == "" && q.Category == matching.CategoryAll {
		candidates, err = h.store.ListByRole(ctx, input.CandidateRole)
	} else {
		candidates, err = h.store.SearchByText(ctx, input.CandidateRole, q.Text, q.Category)
	}
	if err != nil {
		return nil, errors.NewProfileStoreFailedError("query profiles", err)
	}

	out := &Output{Candidates: candidates, Count: len(candidates)}
	if out.Candidates == nil {
		out.Candidates = []models.Profile{}
	}
	if h.config.MaxCandidates > 0 && len(out.Candidates) > h.config.MaxCandidates {
		out.Candidates = out.Candidates[:h.config.MaxCandidates]
		out.Truncated = true
	}

	h.logger.Info("Profiles loaded", map[string]interface{}{
		"role":      string(input.CandidateRole),
		"text":      q.Text,
		"category":  q.Category,
		"count":     out.Count,
		"truncated": out.Truncated,
	})
	return out, nil
}
