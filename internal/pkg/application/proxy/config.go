package proxy

import (
	"fmt"
	"io"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// UpstreamConfig describes one portal deployment the proxy can serve data
// from. Most deployments only have the production portal, but staging
// mirrors and local fixtures are addressed the same way.
type UpstreamConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	APIToken string `yaml:"apiToken"`

	PageSize      int    `yaml:"pageSize"`
	Retries       uint   `yaml:"retries"`
	RetryInterval string `yaml:"retryInterval"`

	Cache CacheInfo `yaml:"cache"`
}

type CacheInfo struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
}

// Backoff returns the configured retry interval, or zero when none was set.
func (u UpstreamConfig) Backoff() time.Duration {
	d, err := time.ParseDuration(u.RetryInterval)
	if err != nil {
		return 0
	}
	return d
}

// ResponseTTL returns the configured cache ttl, or a conservative default
// when caching is enabled without one.
func (u UpstreamConfig) ResponseTTL() time.Duration {
	if !u.Cache.Enabled {
		return 0
	}

	if d, err := time.ParseDuration(u.Cache.TTL); err == nil && d > 0 {
		return d
	}

	return 15 * time.Minute
}

type Config struct {
	Upstreams []UpstreamConfig `yaml:"upstreams"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return nil, err
	}

	for _, u := range cfg.Upstreams {
		if u.ID == "" || u.Endpoint == "" {
			return nil, fmt.Errorf("upstream %q must have both an id and an endpoint", u.Name)
		}
	}

	return cfg, nil
}
