package matching

import (
	"math/rand/v2"
	"sync"
	"testing"

	"sponsorloop-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomStrategy_Range(t *testing.T) {
	s := NewRandomStrategy(42)
	seen := map[int]bool{}

	for i := 0; i < 2000; i++ {
		v := s.ScoreOf(models.Profile{}, models.ViewerContext{})
		require.GreaterOrEqual(t, v, 85)
		require.LessOrEqual(t, v, 99)
		seen[v] = true
	}

	assert.Len(t, seen, 15, "every value in [85,99] should be drawn")
}

func TestRandomStrategy_SeedIsReproducible(t *testing.T) {
	a := NewRandomStrategy(7)
	b := NewRandomStrategy(7)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.ScoreOf(models.Profile{}, models.ViewerContext{}), b.ScoreOf(models.Profile{}, models.ViewerContext{}))
	}
}

func TestRandomStrategy_FromSource(t *testing.T) {
	a := NewRandomStrategyFrom(rand.NewPCG(1, 2))
	b := NewRandomStrategyFrom(rand.NewPCG(1, 2))

	assert.Equal(t, a.ScoreOf(models.Profile{}, models.ViewerContext{}), b.ScoreOf(models.Profile{}, models.ViewerContext{}))
}

func TestRandomStrategy_ConcurrentUse(t *testing.T) {
	s := NewRandomStrategy(99)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := s.ScoreOf(models.Profile{}, models.ViewerContext{})
				assert.True(t, v >= 85 && v <= 99)
			}
		}()
	}
	wg.Wait()
}

func TestScorer_ReasonsForInfluencer(t *testing.T) {
	scorer := NewScorer(StrategyFunc(func(models.Profile, models.ViewerContext) int { return 90 }))
	p := influencer("i-1", "Sarah Johnson", 4.9, 125400, 4.21, "Fashion", "Lifestyle")

	res := scorer.Score(p, models.ViewerContext{Role: models.RoleBrand})

	assert.Equal(t, 90, res.Score)
	require.Len(t, res.Reasons, 2)
	assert.Equal(t, "4.2% engagement across 125K followers", res.Reasons[0])
	assert.Equal(t, "Creates Fashion content", res.Reasons[1])
	assert.Equal(t, p, res.Profile)
}

func TestScorer_ReasonsForBrand(t *testing.T) {
	scorer := NewScorer(StrategyFunc(func(models.Profile, models.ViewerContext) int { return 88 }))
	p := brand("b-1", "GlowUp Cosmetics", 4.8, 5000, 1250000, "Beauty")

	res := scorer.Score(p, models.ViewerContext{Role: models.RoleInfluencer})

	require.Len(t, res.Reasons, 2)
	assert.Equal(t, "Campaign budget $5,000 - $1,250,000", res.Reasons[0])
	assert.Equal(t, "Beauty brand rated 4.8/5", res.Reasons[1])
}

func TestScorer_MissingMetricsDefaultToZero(t *testing.T) {
	scorer := NewScorer(NewRandomStrategy(1))

	tests := []struct {
		name     string
		profile  models.Profile
		expected []string
	}{
		{
			name:     "influencer without metrics or tags",
			profile:  models.Profile{ID: "i-x", Role: models.RoleInfluencer, DisplayName: "New Creator"},
			expected: []string{"0.0% engagement across 0 followers", "Creates General content"},
		},
		{
			name:     "brand without budget",
			profile:  models.Profile{ID: "b-x", Role: models.RoleBrand, DisplayName: "Stealth", CategoryTags: []string{"Food"}},
			expected: []string{"Campaign budget $0 - $0", "Food brand rated 0.0/5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scorer.Score(tt.profile, models.ViewerContext{})
			assert.Equal(t, tt.expected, res.Reasons)
			assert.GreaterOrEqual(t, res.Score, 85)
		})
	}
}

func TestScorer_SmallAudienceShowsRawCount(t *testing.T) {
	scorer := NewScorer(NewRandomStrategy(1))

	tests := []struct {
		followers int64
		expected  string
	}{
		{850, "3.0% engagement across 850 followers"},
		{999, "3.0% engagement across 999 followers"},
		{1000, "3.0% engagement across 1K followers"},
		{125400, "3.0% engagement across 125K followers"},
	}

	for _, tt := range tests {
		p := influencer("i-s", "Small", 4.0, tt.followers, 3.0, "Gaming")
		assert.Equal(t, tt.expected, scorer.Score(p, models.ViewerContext{}).Reasons[0])
	}
}

func TestScorer_AlwaysTwoReasons(t *testing.T) {
	scorer := NewScorer(NewRandomStrategy(3))
	viewers := []models.ViewerContext{
		{Role: models.RoleBrand},
		{Role: models.RoleInfluencer, Connected: &models.ConnectedMetrics{FollowerCount: 1000, EngagementRate: 2}},
		{},
	}

	for _, p := range mixedCandidates() {
		for _, v := range viewers {
			assert.Len(t, scorer.Score(p, v).Reasons, 2)
		}
	}
}

func TestScorer_ClampsStrategyOutput(t *testing.T) {
	tests := []struct {
		raw      int
		expected int
	}{
		{raw: -5, expected: 0},
		{raw: 0, expected: 0},
		{raw: 57, expected: 57},
		{raw: 100, expected: 100},
		{raw: 140, expected: 100},
	}

	for _, tt := range tests {
		raw := tt.raw
		scorer := NewScorer(StrategyFunc(func(models.Profile, models.ViewerContext) int { return raw }))
		assert.Equal(t, tt.expected, scorer.Score(models.Profile{}, models.ViewerContext{}).Score)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:       "$0",
		999:     "$999",
		1000:    "$1,000",
		25000.7: "$25,000",
		1234567: "$1,234,567",
		-10:     "$0",
	}

	for in, expected := range tests {
		assert.Equal(t, expected, formatAmount(in))
	}
}
