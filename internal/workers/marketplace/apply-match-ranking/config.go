// internal/workers/marketplace/apply-match-ranking/config.go
package applymatchranking

import "sponsorloop-workers/internal/common/config"

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

func NewConfig(m config.MatchingConfig) *Config {
	return &Config{DefaultLimit: m.DefaultLimit, MaxLimit: m.MaxLimit}
}
