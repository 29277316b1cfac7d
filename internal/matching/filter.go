package matching

import (
	"strings"

	"sponsorloop-workers/internal/models"
)

// Filter keeps the candidates whose name or tags contain q.Text
// (case-insensitive) and, unless q.Category is All, whose tags contain
// q.Category exactly. Input order is preserved.
//
// Category matching is exact tag containment. Untagged profiles therefore
// only survive an All query.
func Filter(candidates []models.Profile, q SearchQuery) []models.Profile {
	out := make([]models.Profile, 0, len(candidates))
	needle := strings.ToLower(q.Text)
	for _, p := range candidates {
		if !matchesText(p, needle) {
			continue
		}
		if q.restrictsCategory() && !p.HasCategory(q.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesText(p models.Profile, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.DisplayName), needle) {
		return true
	}
	for _, t := range p.CategoryTags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
