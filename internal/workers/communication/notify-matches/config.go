// internal/workers/communication/notify-matches/config.go
package notifymatches

import "sponsorloop-workers/internal/common/config"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	// SMSMaxMatches keeps text messages within a single segment or two.
	SMSMaxMatches int
}

func NewConfig(n config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled:  n.Email.Enabled,
		SMSEnabled:    n.SMS.Enabled,
		SMSMaxMatches: 3,
	}
}
