package proxy

import (
	"bytes"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadConfig(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(len(config.Upstreams), 2) // should have two upstreams
}

func TestLoadUpstream(t *testing.T) {
	is, config := setupConfigTest(t)
	upstream := config.Upstreams[0]

	is.Equal(upstream.ID, "production")
	is.Equal(upstream.Name, "HoloFood Data Portal")
	is.Equal(upstream.Endpoint, "https://www.holofooddata.org")
	is.Equal(upstream.PageSize, 100)
	is.Equal(upstream.Retries, uint(5))
	is.Equal(upstream.Backoff(), 2*time.Second)
}

func TestLoadCacheInfo(t *testing.T) {
	is, config := setupConfigTest(t)

	is.Equal(config.Upstreams[0].ResponseTTL(), time.Hour)
	is.Equal(config.Upstreams[1].ResponseTTL(), time.Duration(0)) // caching disabled
}

func TestCacheTTLDefaultsWhenEnabledWithoutOne(t *testing.T) {
	is := is.New(t)

	u := UpstreamConfig{Cache: CacheInfo{Enabled: true}}
	is.Equal(u.ResponseTTL(), 15*time.Minute)
}

func TestLoadConfigRequiresIDAndEndpoint(t *testing.T) {
	is := is.New(t)

	_, err := LoadConfiguration(bytes.NewBufferString("upstreams:\n  - name: nameless\n"))
	is.True(err != nil) // an upstream without id and endpoint should be refused
}

func setupConfigTest(t *testing.T) (*is.I, *Config) {
	is := is.New(t)
	cfgData := bytes.NewBuffer([]byte(configFile))
	config, err := LoadConfiguration(cfgData)
	is.NoErr(err)

	return is, config
}

var configFile string = `
upstreams:
  - id: production
    name: HoloFood Data Portal
    endpoint: https://www.holofooddata.org
    pageSize: 100
    retries: 5
    retryInterval: 2s
    cache:
      enabled: true
      ttl: 1h
  - id: staging
    name: Staging Mirror
    endpoint: http://lolcathost:8000
`
