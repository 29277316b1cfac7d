package matching

import (
	"testing"

	"sponsorloop-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	candidates := mixedCandidates()

	out := Filter(candidates, SearchQuery{Text: "", Category: CategoryAll})

	assert.Equal(t, candidates, out)
}

func TestFilter_TextMatching(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "matches name or tag case-insensitively", text: "beauty", expected: []string{"b-1", "i-3"}},
		{name: "upper case query", text: "TECH", expected: []string{"b-2", "i-2"}},
		{name: "partial name", text: "chen", expected: []string{"i-2"}},
		{name: "partial tag", text: "fit", expected: []string{"b-3"}},
		{name: "no match", text: "automotive", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(mixedCandidates(), SearchQuery{Text: tt.text, Category: CategoryAll})
			assert.Equal(t, tt.expected, ids(out))
		})
	}
}

func TestFilter_BeautyScenario(t *testing.T) {
	out := Filter(mixedCandidates(), SearchQuery{Text: "beauty", Category: CategoryAll})

	assert.Contains(t, ids(out), "b-1", "GlowUp Cosmetics is tagged Beauty")
	assert.NotContains(t, ids(out), "b-2", "TechFlow is tagged Technology")
	for _, p := range out {
		assert.True(t, matchesText(p, "beauty"))
	}
}

func TestFilter_CategoryIsExactTagContainment(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected []string
	}{
		{name: "exact tag", category: "Technology", expected: []string{"b-2", "i-2"}},
		{name: "secondary niche tag", category: "Gaming", expected: []string{"i-2"}},
		{name: "case sensitive", category: "technology", expected: []string{}},
		{name: "no substring match", category: "Tech", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(mixedCandidates(), SearchQuery{Category: tt.category})
			assert.Equal(t, tt.expected, ids(out))
			for _, p := range out {
				assert.Contains(t, p.CategoryTags, tt.category)
			}
		})
	}
}

func TestFilter_TextAndCategoryCombine(t *testing.T) {
	out := Filter(mixedCandidates(), SearchQuery{Text: "beauty", Category: "Skincare"})

	assert.Equal(t, []string{"i-3"}, ids(out))
}

func TestFilter_EmptyTagsOnlyPassAll(t *testing.T) {
	untagged := brand("b-9", "Mystery Co", 3.0, 0, 0, "")
	candidates := append(mixedCandidates(), untagged)

	all := Filter(candidates, NewSearchQuery("", ""))
	assert.Contains(t, ids(all), "b-9")

	byCategory := Filter(candidates, SearchQuery{Category: "Beauty"})
	assert.NotContains(t, ids(byCategory), "b-9")
}

func TestFilter_EmptyCandidates(t *testing.T) {
	out := Filter(nil, SearchQuery{Text: "anything", Category: "Beauty"})

	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFilter_IsIdempotent(t *testing.T) {
	queries := []SearchQuery{
		{Text: "beauty", Category: CategoryAll},
		{Text: "", Category: "Technology"},
		{Text: "o", Category: "Fashion"},
	}

	for _, q := range queries {
		once := Filter(mixedCandidates(), q)
		twice := Filter(once, q)
		assert.Equal(t, once, twice)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	candidates := mixedCandidates()
	before := make([]models.Profile, len(candidates))
	for i, p := range candidates {
		before[i] = p.Clone()
	}

	_ = Filter(candidates, SearchQuery{Text: "beauty", Category: "Beauty"})

	assert.Equal(t, before, candidates)
}

func TestNewSearchQuery_Defaults(t *testing.T) {
	q := NewSearchQuery("  glow  ", "  ")

	assert.Equal(t, "glow", q.Text)
	assert.Equal(t, CategoryAll, q.Category)
}
