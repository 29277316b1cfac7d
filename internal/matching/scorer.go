package matching

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"sponsorloop-workers/internal/models"
)

const (
	randomScoreMin = 85
	randomScoreMax = 99

	uncategorized = "General"
)

// Strategy produces the base score of a candidate for a viewer.
type Strategy interface {
	ScoreOf(p models.Profile, viewer models.ViewerContext) int
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(p models.Profile, viewer models.ViewerContext) int

func (f StrategyFunc) ScoreOf(p models.Profile, viewer models.ViewerContext) int {
	return f(p, viewer)
}

// RandomStrategy is the "AI confidence" placeholder: a uniform draw from
// [85, 99] that ignores both profile and viewer. It is a simulation, not a
// heuristic.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy seeds the draw so runs can be reproduced.
func NewRandomStrategy(seed uint64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomStrategyFrom uses an existing source. The source is only read
// under the strategy's lock.
func NewRandomStrategyFrom(src rand.Source) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(src)}
}

func (s *RandomStrategy) ScoreOf(models.Profile, models.ViewerContext) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return randomScoreMin + s.rng.IntN(randomScoreMax-randomScoreMin+1)
}

// Scorer attaches a score and two display reasons to a candidate.
type Scorer struct {
	strategy Strategy
}

func NewScorer(strategy Strategy) *Scorer {
	return &Scorer{strategy: strategy}
}

// Score never fails: absent metrics read as zero and missing tags as
// "General".
func (s *Scorer) Score(p models.Profile, viewer models.ViewerContext) MatchResult {
	return MatchResult{
		Profile: p,
		Score:   clampScore(s.strategy.ScoreOf(p, viewer)),
		Reasons: Reasons(p),
	}
}

// Reasons returns exactly two reasons, performance first and category
// second. The wording follows the candidate's role, which is always the
// viewer's opposite in the product flows.
func Reasons(p models.Profile) []string {
	category := p.PrimaryCategory()
	if category == "" {
		category = uncategorized
	}

	if p.Role == models.RoleBrand || (p.Role == "" && p.Brand != nil) {
		b := p.Budget()
		return []string{
			fmt.Sprintf("Campaign budget %s - %s", formatAmount(b.Min), formatAmount(b.Max)),
			fmt.Sprintf("%s brand rated %.1f/5", category, p.Rating),
		}
	}

	return []string{
		fmt.Sprintf("%.1f%% engagement across %s followers", p.EngagementRate(), formatFollowers(p.FollowerCount())),
		fmt.Sprintf("Creates %s content", category),
	}
}

// formatFollowers abbreviates counts of a thousand or more as "120K".
func formatFollowers(n int64) string {
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n/1000, 10) + "K"
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// formatAmount renders whole dollars with thousands separators.
func formatAmount(v float64) string {
	if v < 0 {
		v = 0
	}
	digits := strconv.FormatInt(int64(v), 10)
	var b strings.Builder
	b.WriteByte('$')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
