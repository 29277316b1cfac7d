// internal/workers/marketplace/calculate-match-score/handler.go
package calculatematchscore

import (
	"context"
	"encoding/json"
	"fmt"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

const TaskType = "calculate-match-score"

// MetricsLookup fills in a viewer's connected social metrics. It returns nil
// when none are known.
type MetricsLookup interface {
	LookupMetrics(ctx context.Context, userID string) *models.ConnectedMetrics
}

type Handler struct {
	config  *Config
	scorer  *matching.Scorer
	metrics MetricsLookup
	logger  logger.Logger
}

// NewHandler builds the worker. metrics may be nil.
func NewHandler(config *Config, scorer *matching.Scorer, metrics MetricsLookup, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		scorer:  scorer,
		metrics: metrics,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) HandleJob(ctx context.Context, variables string) (interface{}, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

// Execute scores every candidate in input order. When a query is supplied the
// candidates are filtered first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	viewer := input.Viewer
	if !viewer.Role.Valid() {
		return nil, errors.NewInvalidRoleError(string(viewer.Role))
	}
	if h.config.EnrichViewer && h.metrics != nil && viewer.UserID != "" && viewer.Connected == nil {
		viewer.Connected = h.metrics.LookupMetrics(ctx, viewer.UserID)
	}

	candidates := input.Candidates
	if input.Query != nil {
		candidates = matching.Filter(candidates, matching.NewSearchQuery(input.Query.Text, input.Query.Category))
	}

	results := make([]matching.MatchResult, 0, len(candidates))
	skipped := 0
	for _, p := range candidates {
		// Same-side profiles are never offered as matches.
		if p.Role == viewer.Role {
			skipped++
			continue
		}
		results = append(results, h.scorer.Score(p, viewer))
	}

	h.logger.Info("Candidates scored", map[string]interface{}{
		"viewerRole": string(viewer.Role),
		"scored":     len(results),
		"skipped":    skipped,
		"enriched":   viewer.Connected != nil,
	})
	return &Output{ScoredResults: results, Viewer: viewer}, nil
}
