package matching

import (
	"errors"
	"sync"
	"testing"

	"sponsorloop-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Match_FullPipeline(t *testing.T) {
	engine := NewEngine(fixedScores(map[string]int{
		"b-1": 91, "b-2": 97, "b-3": 91,
	}))
	brands := []models.Profile{}
	for _, p := range mixedCandidates() {
		if p.Role == models.RoleBrand {
			brands = append(brands, p)
		}
	}
	viewer := models.ViewerContext{Role: models.RoleInfluencer, UserID: "u-1"}

	results, err := engine.Match(brands, NewSearchQuery("", CategoryAll), viewer, 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"b-2", "b-1", "b-3"}, resultIDs(results))
	for _, r := range results {
		assert.Len(t, r.Reasons, 2)
	}
}

func TestEngine_Match_FiltersBeforeScoring(t *testing.T) {
	var scoredIDs []string
	engine := NewEngine(StrategyFunc(func(p models.Profile, _ models.ViewerContext) int {
		scoredIDs = append(scoredIDs, p.ID)
		return 90
	}))

	results, err := engine.Match(mixedCandidates(), SearchQuery{Text: "beauty", Category: CategoryAll}, models.ViewerContext{Role: models.RoleBrand}, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"b-1", "i-3"}, scoredIDs)
	assert.Len(t, results, 2)
}

func TestEngine_Match_InvalidLimitFailsFast(t *testing.T) {
	called := false
	engine := NewEngine(StrategyFunc(func(models.Profile, models.ViewerContext) int {
		called = true
		return 90
	}))

	for _, limit := range []int{0, -3} {
		results, err := engine.Match(mixedCandidates(), NewSearchQuery("", ""), models.ViewerContext{}, limit)
		assert.Nil(t, results)
		assert.True(t, errors.Is(err, ErrInvalidLimit))
	}
	assert.False(t, called, "no candidate should be scored when the limit is invalid")
}

func TestEngine_Match_EmptyCandidates(t *testing.T) {
	engine := NewEngine(NewRandomStrategy(1))

	results, err := engine.Match(nil, NewSearchQuery("x", "Beauty"), models.ViewerContext{}, 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_MatchAll_Unbounded(t *testing.T) {
	engine := NewEngine(NewRandomStrategy(5))

	results := engine.MatchAll(mixedCandidates(), NewSearchQuery("", ""), models.ViewerContext{Role: models.RoleBrand})

	assert.Len(t, results, len(mixedCandidates()))
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestEngine_Match_SeededRunsAreReproducible(t *testing.T) {
	q := NewSearchQuery("", "")
	viewer := models.ViewerContext{Role: models.RoleBrand}

	a, err := NewEngine(NewRandomStrategy(11)).Match(mixedCandidates(), q, viewer, 4)
	require.NoError(t, err)
	b, err := NewEngine(NewRandomStrategy(11)).Match(mixedCandidates(), q, viewer, 4)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEngine_Match_ConcurrentCalls(t *testing.T) {
	engine := NewEngine(NewRandomStrategy(21))
	candidates := mixedCandidates()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := engine.Match(candidates, NewSearchQuery("", ""), models.ViewerContext{Role: models.RoleBrand}, 3)
			assert.NoError(t, err)
			assert.Len(t, results, 3)
		}()
	}
	wg.Wait()
}
