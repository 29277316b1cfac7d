// internal/workers/marketplace/find-matches/handler.go
package findmatches

import (
	"context"
	"encoding/json"
	"fmt"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/events"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/metrics"
	"sponsorloop-workers/internal/common/observability"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"
)

const (
	TaskType = "find-matches"

	metricsSource = "worker"
)

type Dependencies struct {
	Store         profilestore.Store
	Engine        *matching.Engine
	Bus           events.Bus
	Observability *observability.Observability
}

type Handler struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		deps:   deps,
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

// Execute loads the opposite role's candidates, runs the match pipeline and
// announces the result. A failed announcement does not fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	viewer := input.Viewer
	if !viewer.Role.Valid() {
		return nil, errors.NewInvalidRoleError(string(viewer.Role))
	}

	limit := h.config.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}
	if limit <= 0 {
		return nil, errors.NewInvalidLimitError(limit, matching.ErrInvalidLimit)
	}
	if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	candidates, err := h.deps.Store.ListByRole(ctx, viewer.CandidateRole())
	if err != nil {
		return nil, errors.NewProfileStoreFailedError("list candidates", err)
	}

	q := matching.NewSearchQuery(input.Text, input.Category)
	results, err := h.deps.Engine.Match(candidates, q, viewer, limit)
	if err != nil {
		return nil, errors.NewInvalidLimitError(limit, err)
	}

	metrics.ObserveMatch(metricsSource, string(viewer.Role), len(candidates), len(results))
	h.deps.Observability.RecordMatches(ctx, metricsSource, string(viewer.Role), len(results))

	out := &Output{Matches: results, Count: len(results)}
	if h.config.PublishEvents && h.deps.Bus != nil {
		out.EventID = h.publish(ctx, viewer, q, results)
	}

	h.logger.Info("Matches found", map[string]interface{}{
		"viewerRole": string(viewer.Role),
		"candidates": len(candidates),
		"matches":    len(results),
		"limit":      limit,
	})
	return out, nil
}

func (h *Handler) publish(ctx context.Context, viewer models.ViewerContext, q matching.SearchQuery, results []matching.MatchResult) string {
	evt, err := h.deps.Bus.Publish(ctx, events.TopicMatchesRanked, events.MatchesRanked{
		ViewerID:   viewer.UserID,
		ViewerRole: string(viewer.Role),
		Text:       q.Text,
		Category:   q.Category,
		Source:     metricsSource,
		Matches:    events.RankedFrom(results),
	})
	if err != nil {
		h.logger.Warn("Failed to publish ranked matches", map[string]interface{}{
			"error": errors.NewEventPublishFailedError(events.TopicMatchesRanked, err),
		})
		return ""
	}
	return evt.ID
}
