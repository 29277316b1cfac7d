// internal/workers/marketplace/find-matches/config.go
package findmatches

import "sponsorloop-workers/internal/common/config"

type Config struct {
	DefaultLimit int
	MaxLimit     int
	// PublishEvents announces every ranked result set on the bus.
	PublishEvents bool
}

func NewConfig(m config.MatchingConfig) *Config {
	return &Config{DefaultLimit: m.DefaultLimit, MaxLimit: m.MaxLimit, PublishEvents: true}
}
