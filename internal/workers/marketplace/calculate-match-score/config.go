// internal/workers/marketplace/calculate-match-score/config.go
package calculatematchscore

type Config struct {
	// EnrichViewer looks up connected metrics for viewers that arrive without them.
	EnrichViewer bool
}

func LoadConfig() *Config {
	return &Config{EnrichViewer: true}
}
