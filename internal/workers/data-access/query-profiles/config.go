// internal/workers/data-access/query-profiles/config.go
package queryprofiles

// Config bounds how many candidates a single job may hand downstream; Zeebe
// variables are size limited.
type Config struct {
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{MaxCandidates: 1000}
}
