// internal/profilestore/cached.go
package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/metrics"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "profiles:snapshot:"

// CachedStore serves per-role snapshots from Redis and falls back to the
// wrapped store on a miss or a Redis failure. Text search filters the
// snapshot in process so it agrees with the matching filter.
type CachedStore struct {
	store  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(store Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func snapshotKey(role models.Role) string {
	return snapshotKeyPrefix + string(role)
}

func (c *CachedStore) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}

	data, err := c.rdb.Get(ctx, snapshotKey(role)).Bytes()
	switch {
	case err == nil:
		var profiles []models.Profile
		if err := json.Unmarshal(data, &profiles); err == nil {
			metrics.ProfileStoreCacheLookups.WithLabelValues(string(role), "hit").Inc()
			return profiles, nil
		}
		c.logger.Warn("Discarding unreadable snapshot", map[string]interface{}{"role": string(role)})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Snapshot cache unavailable", map[string]interface{}{"role": string(role), "error": err})
	}

	metrics.ProfileStoreCacheLookups.WithLabelValues(string(role), "miss").Inc()
	return c.load(ctx, role)
}

func (c *CachedStore) SearchByText(ctx context.Context, role models.Role, text, category string) ([]models.Profile, error) {
	all, err := c.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return matching.Filter(all, matching.NewSearchQuery(text, category)), nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (models.Profile, error) {
	return c.store.Get(ctx, id)
}

// Create writes through to the wrapped store and drops the role's snapshot.
func (c *CachedStore) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	w, ok := c.store.(Writer)
	if !ok {
		return models.Profile{}, ErrReadOnly
	}
	created, err := w.Create(ctx, p)
	if err != nil {
		return models.Profile{}, err
	}
	if err := c.Invalidate(ctx, created.Role); err != nil {
		c.logger.Warn("Failed to invalidate snapshot", map[string]interface{}{"role": string(created.Role), "error": err})
	}
	return created, nil
}

// Refresh reloads the role's snapshot from the wrapped store.
func (c *CachedStore) Refresh(ctx context.Context, role models.Role) error {
	if err := checkRole(role); err != nil {
		return err
	}
	profiles, err := c.store.ListByRole(ctx, role)
	if err != nil {
		return err
	}
	return c.put(ctx, role, profiles)
}

func (c *CachedStore) Invalidate(ctx context.Context, role models.Role) error {
	return c.rdb.Del(ctx, snapshotKey(role)).Err()
}

func (c *CachedStore) load(ctx context.Context, role models.Role) ([]models.Profile, error) {
	profiles, err := c.store.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if err := c.put(ctx, role, profiles); err != nil {
		c.logger.Warn("Failed to store snapshot", map[string]interface{}{"role": string(role), "error": err})
	}
	return profiles, nil
}

func (c *CachedStore) put(ctx context.Context, role models.Role, profiles []models.Profile) error {
	if profiles == nil {
		profiles = []models.Profile{}
	}
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey(role), data, c.ttl).Err()
}
