// internal/workers/marketplace/parse-search-query/handler.go
package parsesearchquery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
)

const TaskType = "parse-search-query"

// limitAll asks for the unbounded dashboard listing.
const limitAll = "all"

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

// HandleJob decodes the job variables and runs Execute.
func (h *Handler) HandleJob(ctx context.Context, variables string) (interface{}, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	raw := input.RawFilters
	if raw == nil {
		raw = map[string]interface{}{}
	}

	text, err := stringField(raw, "text")
	if err != nil {
		return nil, err
	}
	if text == "" {
		if text, err = stringField(raw, "keywords"); err != nil {
			return nil, err
		}
	}
	category, err := stringField(raw, "category")
	if err != nil {
		return nil, err
	}

	roleName, err := stringField(raw, "role")
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(strings.ToLower(strings.TrimSpace(roleName)))
	if err != nil {
		return nil, errors.NewInvalidRoleError(roleName)
	}

	out := &Output{
		SearchQuery:   matching.NewSearchQuery(text, category),
		ViewerRole:    role,
		CandidateRole: role.Opposite(),
	}
	if out.Limit, out.All, err = h.parseLimit(raw["limit"]); err != nil {
		return nil, err
	}

	h.logger.Info("Search query parsed", map[string]interface{}{
		"text":          out.SearchQuery.Text,
		"category":      out.SearchQuery.Category,
		"viewerRole":    string(out.ViewerRole),
		"candidateRole": string(out.CandidateRole),
		"limit":         out.Limit,
		"all":           out.All,
	})
	return out, nil
}

func stringField(raw map[string]interface{}, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.NewInvalidFilterFormatError(fmt.Sprintf("%s must be a string, got %T", key, v))
	}
	return s, nil
}

// parseLimit applies the configured default when limit is absent and caps it
// at the configured maximum. An explicit non-positive limit is rejected.
func (h *Handler) parseLimit(v interface{}) (int, bool, error) {
	var n int
	switch x := v.(type) {
	case nil:
		return h.config.DefaultLimit, false, nil
	case float64:
		if x != math.Trunc(x) {
			return 0, false, errors.NewInvalidFilterFormatError(fmt.Sprintf("limit must be an integer, got %v", x))
		}
		// cap before converting so huge values cannot overflow int
		if h.config.MaxLimit > 0 && x > float64(h.config.MaxLimit) {
			x = float64(h.config.MaxLimit)
		}
		if x > math.MaxInt32 {
			x = math.MaxInt32
		}
		n = int(x)
	case string:
		s := strings.TrimSpace(x)
		if strings.EqualFold(s, limitAll) {
			return 0, true, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, errors.NewInvalidFilterFormatError(fmt.Sprintf("limit %q is not a number", x))
		}
		n = parsed
	default:
		return 0, false, errors.NewInvalidFilterFormatError(fmt.Sprintf("limit has unsupported type %T", v))
	}

	if n <= 0 {
		return 0, false, errors.NewInvalidLimitError(n, matching.ErrInvalidLimit)
	}
	if h.config.MaxLimit > 0 && n > h.config.MaxLimit {
		n = h.config.MaxLimit
	}
	return n, false, nil
}
