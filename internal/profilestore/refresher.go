// internal/profilestore/refresher.go
package profilestore

import (
	"context"
	"time"

	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/models"

	"github.com/robfig/cron/v3"
)

// Refreshable reloads one role's snapshot.
type Refreshable interface {
	Refresh(ctx context.Context, role models.Role) error
}

// Refresher reloads both role snapshots on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	target  Refreshable
	timeout time.Duration
	logger  logger.Logger
}

// NewRefresher parses schedule (five-field cron or a descriptor such as
// "@every 5m") and registers the refresh job. Call Start to run it.
func NewRefresher(target Refreshable, schedule string, log logger.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		target:  target,
		timeout: 30 * time.Second,
		logger:  log.WithFields(map[string]interface{}{"component": "profile-refresher"}),
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RefreshAll(context.Background()) }); err != nil {
		return nil, err
	}
	return r, nil
}

// RefreshAll refreshes every role and returns how many failed.
func (r *Refresher) RefreshAll(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	failed := 0
	for _, role := range []models.Role{models.RoleBrand, models.RoleInfluencer} {
		if err := r.target.Refresh(ctx, role); err != nil {
			failed++
			r.logger.Error("Snapshot refresh failed", map[string]interface{}{"role": string(role), "error": err})
			continue
		}
		r.logger.Debug("Snapshot refreshed", map[string]interface{}{"role": string(role)})
	}
	return failed
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
