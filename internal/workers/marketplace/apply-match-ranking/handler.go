// internal/workers/marketplace/apply-match-ranking/handler.go
package applymatchranking

import (
	"context"
	"encoding/json"
	"fmt"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
)

const TaskType = "apply-match-ranking"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	var ranked []matching.MatchResult
	if input.All {
		ranked = matching.RankAll(input.ScoredResults)
	} else {
		limit := h.config.DefaultLimit
		if input.Limit != nil {
			limit = *input.Limit
		}
		if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
			limit = h.config.MaxLimit
		}

		var err error
		if ranked, err = matching.Rank(input.ScoredResults, limit); err != nil {
			return nil, errors.NewInvalidLimitError(limit, err)
		}
	}

	h.logger.Info("Matches ranked", map[string]interface{}{
		"scored": len(input.ScoredResults),
		"ranked": len(ranked),
		"all":    input.All,
	})
	return &Output{RankedMatches: ranked, Count: len(ranked), TotalScored: len(input.ScoredResults)}, nil
}
