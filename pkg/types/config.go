package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound client.
type HTTPConfig struct {
	// Timeout is the per-attempt request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of attempts before giving up (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InsecureTLS skips certificate verification. Defaults to true because
	// many institutional hosts run expired or self-signed certificates.
	InsecureTLS bool `json:"insecure_tls" yaml:"insecure_tls"`

	// UserAgents is the pool a random User-Agent is drawn from per attempt.
	// Empty means the built-in browser pool.
	UserAgents []string `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`
}

// RateConfig holds per-host token bucket settings.
type RateConfig struct {
	// DefaultPerSecond applies to hosts without an override (default 1).
	DefaultPerSecond float64 `json:"default_per_second" yaml:"default_per_second"`

	// PerHost overrides the rate for specific hostnames.
	PerHost map[string]float64 `json:"per_host,omitempty" yaml:"per_host,omitempty"`
}

// AccessConfig groups the settings of the access layer.
type AccessConfig struct {
	HTTP HTTPConfig `json:"http" yaml:"http"`
	Rate RateConfig `json:"rate" yaml:"rate"`

	// CapabilityTTL is how long a capability probe stays authoritative (default 1h).
	CapabilityTTL time.Duration `json:"capability_ttl" yaml:"capability_ttl"`

	// DefaultMaxResults applies when SearchOptions.MaxResults is zero (default 50).
	DefaultMaxResults int `json:"default_max_results" yaml:"default_max_results"`

	// BatchSize bounds concurrent fan-out toward one platform or across
	// repositories (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RegistryPath is the YAML or JSON repository registry file.
	RegistryPath string `json:"registry_path" yaml:"registry_path"`

	// DownloadDir receives validated PDFs and their YAML sidecars.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`
}

// DefaultAccessConfig returns the documented defaults.
func DefaultAccessConfig() AccessConfig {
	return AccessConfig{
		HTTP: HTTPConfig{
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			InsecureTLS: true,
		},
		Rate:              RateConfig{DefaultPerSecond: 1},
		CapabilityTTL:     time.Hour,
		DefaultMaxResults: 50,
		BatchSize:         5,
		RegistryPath:      "repositories.yaml",
		DownloadDir:       "papers",
	}
}
