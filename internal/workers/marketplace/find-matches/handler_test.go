// internal/workers/marketplace/find-matches/handler_test.go
package findmatches

import (
	"context"
	stderrors "errors"
	"testing"

	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/events"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type failingStore struct {
	profilestore.Store
}

func (failingStore) ListByRole(context.Context, models.Role) ([]models.Profile, error) {
	return nil, stderrors.New("connection refused")
}

type failingBus struct {
	events.Bus
}

func (failingBus) Publish(context.Context, string, interface{}) (events.Event, error) {
	return events.Event{}, stderrors.New("nats: connection closed")
}

// byName scores from a table so ranking is deterministic.
func byName(scores map[string]int) matching.Strategy {
	return matching.StrategyFunc(func(p models.Profile, _ models.ViewerContext) int {
		return scores[p.DisplayName]
	})
}

func seedStore(t *testing.T) *profilestore.MemoryStore {
	t.Helper()
	store := profilestore.NewMemoryStore()
	profiles := []models.Profile{
		{ID: "i-1", Role: models.RoleInfluencer, DisplayName: "Ava", CategoryTags: []string{"Beauty"}, Rating: 4.1},
		{ID: "i-2", Role: models.RoleInfluencer, DisplayName: "Ben", CategoryTags: []string{"Tech"}, Rating: 4.9},
		{ID: "i-3", Role: models.RoleInfluencer, DisplayName: "Cara", CategoryTags: []string{"Beauty", "Skincare"}, Rating: 4.5},
		{ID: "i-4", Role: models.RoleInfluencer, DisplayName: "Dev", CategoryTags: []string{"Beauty"}, Rating: 3.0},
		{ID: "b-1", Role: models.RoleBrand, DisplayName: "Lumen", CategoryTags: []string{"Beauty"}, Rating: 4.0},
	}
	require.NoError(t, store.Seed(context.Background(), profiles))
	return store
}

func createTestHandler(t *testing.T, store profilestore.Store, bus events.Bus) *Handler {
	engine := matching.NewEngine(byName(map[string]int{"Ava": 90, "Ben": 95, "Cara": 95, "Dev": 70, "Lumen": 88}))
	return NewHandler(&Config{DefaultLimit: 3, MaxLimit: 10, PublishEvents: true}, Dependencies{
		Store:  store,
		Engine: engine,
		Bus:    bus,
	}, logger.NewTestLogger(t))
}

func idsOf(results []matching.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Profile.ID)
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_BrandViewerGetsInfluencers(t *testing.T) {
	bus := events.NewMemoryBus()
	var received []events.MatchesRanked
	_, err := bus.Subscribe(events.TopicMatchesRanked, func(_ context.Context, e events.Event) {
		var payload events.MatchesRanked
		require.NoError(t, e.Decode(&payload))
		received = append(received, payload)
	})
	require.NoError(t, err)

	out, err := createTestHandler(t, seedStore(t), bus).Execute(context.Background(), &Input{
		Viewer: models.ViewerContext{Role: models.RoleBrand, UserID: "u-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"i-2", "i-3", "i-1"}, idsOf(out.Matches))
	assert.Equal(t, 3, out.Count)
	assert.NotEmpty(t, out.EventID)

	require.Len(t, received, 1)
	assert.Equal(t, "u-1", received[0].ViewerID)
	assert.Equal(t, "brand", received[0].ViewerRole)
	assert.Equal(t, []events.RankedMatch{{ProfileID: "i-2", Score: 95}, {ProfileID: "i-3", Score: 95}, {ProfileID: "i-1", Score: 90}},
		received[0].Matches)
}

func TestHandler_Execute_CategoryFilter(t *testing.T) {
	limit := 10
	out, err := createTestHandler(t, seedStore(t), nil).Execute(context.Background(), &Input{
		Viewer:   models.ViewerContext{Role: models.RoleBrand},
		Category: "Beauty",
		Limit:    &limit,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"i-3", "i-1", "i-4"}, idsOf(out.Matches))
	assert.Empty(t, out.EventID)
	for _, m := range out.Matches {
		assert.Len(t, m.Reasons, 2)
	}
}

func TestHandler_Execute_InfluencerViewerGetsBrands(t *testing.T) {
	out, err := createTestHandler(t, seedStore(t), nil).Execute(context.Background(), &Input{
		Viewer: models.ViewerContext{Role: models.RoleInfluencer},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"b-1"}, idsOf(out.Matches))
}

func TestHandler_Execute_PublishFailureIsNotFatal(t *testing.T) {
	out, err := createTestHandler(t, seedStore(t), failingBus{}).Execute(context.Background(), &Input{
		Viewer: models.ViewerContext{Role: models.RoleBrand},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Empty(t, out.EventID)
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	zero := 0
	tests := []struct {
		name  string
		store profilestore.Store
		input Input
		code  errors.ErrorCode
	}{
		{"unknown viewer role", seedStore(t), Input{}, errors.ErrCodeInvalidRole},
		{"zero limit", seedStore(t), Input{Viewer: models.ViewerContext{Role: models.RoleBrand}, Limit: &zero}, errors.ErrCodeInvalidLimit},
		{"store failure", failingStore{}, Input{Viewer: models.ViewerContext{Role: models.RoleBrand}}, errors.ErrCodeProfileStoreFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			_, err := createTestHandler(t, tt.store, nil).Execute(context.Background(), &in)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.AsStandardError(err).Code)
		})
	}
}

func TestHandler_HandleJob(t *testing.T) {
	out, err := createTestHandler(t, seedStore(t), nil).HandleJob(context.Background(),
		`{"viewer":{"role":"brand"},"text":"ben","limit":5}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"i-2"}, idsOf(out.(*Output).Matches))
}
