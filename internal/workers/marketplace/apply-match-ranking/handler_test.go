// internal/workers/marketplace/apply-match-ranking/handler_test.go
package applymatchranking

import (
	"context"
	stderrors "errors"
	"testing"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{DefaultLimit: 3, MaxLimit: 4}, logger.NewTestLogger(t))
}

func scored(scores ...int) []matching.MatchResult {
	out := make([]matching.MatchResult, 0, len(scores))
	for i, s := range scores {
		out = append(out, matching.MatchResult{
			Profile: models.Profile{ID: string(rune('a' + i)), Rating: 4},
			Score:   s,
		})
	}
	return out
}

func scoresOf(results []matching.MatchResult) []int {
	out := make([]int, 0, len(results))
	for _, r := range results {
		out = append(out, r.Score)
	}
	return out
}

func intPtr(v int) *int { return &v }

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name   string
		input  Input
		scores []int
		ids    []string
	}{
		{
			name:   "default limit",
			input:  Input{ScoredResults: scored(90, 95, 88, 95, 70)},
			scores: []int{95, 95, 90},
			ids:    []string{"b", "d", "a"},
		},
		{
			name:   "explicit limit",
			input:  Input{ScoredResults: scored(90, 95, 88, 95, 70), Limit: intPtr(2)},
			scores: []int{95, 95},
			ids:    []string{"b", "d"},
		},
		{
			name:   "limit capped at maximum",
			input:  Input{ScoredResults: scored(90, 95, 88, 95, 70), Limit: intPtr(50)},
			scores: []int{95, 95, 90, 88},
			ids:    []string{"b", "d", "a", "c"},
		},
		{
			name:   "all ranks everything",
			input:  Input{ScoredResults: scored(90, 95, 88, 95, 70), All: true},
			scores: []int{95, 95, 90, 88, 70},
			ids:    []string{"b", "d", "a", "c", "e"},
		},
		{
			name:   "fewer results than limit",
			input:  Input{ScoredResults: scored(80), Limit: intPtr(3)},
			scores: []int{80},
			ids:    []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			out, err := createTestHandler(t).Execute(context.Background(), &in)
			require.NoError(t, err)
			assert.Equal(t, tt.scores, scoresOf(out.RankedMatches))
			ids := make([]string, 0, len(out.RankedMatches))
			for _, r := range out.RankedMatches {
				ids = append(ids, r.Profile.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(tt.scores), out.Count)
			assert.Equal(t, len(tt.input.ScoredResults), out.TotalScored)
		})
	}
}

func TestHandler_Execute_DoesNotReorderInput(t *testing.T) {
	input := &Input{ScoredResults: scored(70, 99)}

	_, err := createTestHandler(t).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []int{70, 99}, scoresOf(input.ScoredResults))
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_NonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := createTestHandler(t).Execute(context.Background(), &Input{ScoredResults: scored(90), Limit: intPtr(limit)})

		require.Error(t, err)
		stdErr := errors.AsStandardError(err)
		assert.Equal(t, errors.ErrCodeInvalidLimit, stdErr.Code)
		assert.True(t, stderrors.Is(err, matching.ErrInvalidLimit))
	}
}

func TestHandler_HandleJob(t *testing.T) {
	out, err := createTestHandler(t).HandleJob(context.Background(),
		`{"scoredResults":[{"profile":{"id":"x"},"score":91,"reasons":["a","b"]}],"limit":1}`)

	require.NoError(t, err)
	assert.Equal(t, 1, out.(*Output).Count)
}
