package matching

import "sponsorloop-workers/internal/models"

// ==========================
// Test Helper Functions
// ==========================

func influencer(id, name string, rating float64, followers int64, engagement float64, tags ...string) models.Profile {
	return models.Profile{
		ID:           id,
		Role:         models.RoleInfluencer,
		DisplayName:  name,
		CategoryTags: tags,
		Rating:       rating,
		Influencer:   &models.InfluencerMetrics{FollowerCount: followers, EngagementRate: engagement},
	}
}

func brand(id, name string, rating, min, max float64, industry string) models.Profile {
	p := models.Profile{
		ID:          id,
		Role:        models.RoleBrand,
		DisplayName: name,
		Rating:      rating,
		Brand:       &models.BrandMetrics{Budget: models.BudgetRange{Min: min, Max: max}},
	}
	if industry != "" {
		p.CategoryTags = []string{industry}
	}
	return p
}

func mixedCandidates() []models.Profile {
	return []models.Profile{
		brand("b-1", "GlowUp Cosmetics", 4.8, 5000, 20000, "Beauty"),
		brand("b-2", "TechFlow", 4.5, 10000, 50000, "Technology"),
		influencer("i-1", "Sarah Johnson", 4.9, 125000, 4.2, "Fashion", "Lifestyle"),
		influencer("i-2", "Mike Chen", 4.7, 89000, 5.1, "Technology", "Gaming"),
		influencer("i-3", "Beauty By Ana", 4.6, 230000, 3.8, "Beauty", "Skincare"),
		brand("b-3", "FitLife Nutrition", 4.2, 2000, 8000, "Health & Fitness"),
	}
}

func ids(ps []models.Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func resultIDs(rs []MatchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Profile.ID
	}
	return out
}

// fixedScores scores candidates from a lookup keyed by profile ID.
func fixedScores(scores map[string]int) Strategy {
	return StrategyFunc(func(p models.Profile, _ models.ViewerContext) int {
		return scores[p.ID]
	})
}
