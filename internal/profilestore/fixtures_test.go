package profilestore

import (
	"context"
	"time"

	"sponsorloop-workers/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func influencer(id, name string, followers int64, engagement float64, tags ...string) models.Profile {
	return models.Profile{
		ID:           id,
		Role:         models.RoleInfluencer,
		DisplayName:  name,
		CategoryTags: tags,
		Rating:       4.5,
		Influencer:   &models.InfluencerMetrics{FollowerCount: followers, EngagementRate: engagement},
		CreatedAt:    baseTime,
	}
}

func brand(id, name string, min, max float64, tags ...string) models.Profile {
	return models.Profile{
		ID:           id,
		Role:         models.RoleBrand,
		DisplayName:  name,
		CategoryTags: tags,
		Rating:       4.0,
		Brand:        &models.BrandMetrics{Budget: models.BudgetRange{Min: min, Max: max}},
		CreatedAt:    baseTime,
	}
}

func seededMemoryStore(profiles ...models.Profile) *MemoryStore {
	s := NewMemoryStore()
	if err := s.Seed(context.Background(), profiles); err != nil {
		panic(err)
	}
	return s
}

func ids(profiles []models.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}
