package proxy

import (
	"context"
	"time"

	"github.com/holofood-data/holofood-go/pkg/holofood"
	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// DataAccess is the capability the API layer is built on. Each method maps
// to one data access operation against a configured upstream portal.
type DataAccess interface {
	Search(ctx context.Context, upstream, entityType string, filters map[string]string, maxHits int) (*tables.Table, error)
	SearchTables(ctx context.Context, upstream, entityType string, filters map[string]string, maxHits int) (*tables.TableSet, error)
	FetchByAccession(ctx context.Context, upstream, entityType string, accessions []string) (*holofood.FetchResult, error)
	AssembleResult(ctx context.Context, upstream string, accessions []string) (*holofood.ResultContainer, error)

	ResponseTTLFor(upstream string) (ttl time.Duration, cacheable bool)
}

type proxyApp struct {
	upstreams map[string]*holofood.Portal
	config    map[string]UpstreamConfig
}

// New wires one portal engine per configured upstream.
func New(ctx context.Context, cfg *Config) (DataAccess, error) {
	app := &proxyApp{
		upstreams: map[string]*holofood.Portal{},
		config:    map[string]UpstreamConfig{},
	}

	for _, u := range cfg.Upstreams {
		options := []holofood.OptionFunc{}
		if u.PageSize > 0 {
			options = append(options, holofood.PageSize(u.PageSize))
		}
		if u.Retries > 0 {
			options = append(options, holofood.Retries(u.Retries))
		}
		if backoff := u.Backoff(); backoff > 0 {
			options = append(options, holofood.RetryInterval(backoff))
		}

		c := client.New(u.Endpoint, client.APIToken(u.APIToken))

		app.upstreams[u.ID] = holofood.New(c, options...)
		app.config[u.ID] = u
	}

	return app, nil
}

func (app *proxyApp) portal(upstream string) (*holofood.Portal, error) {
	p, found := app.upstreams[upstream]
	if !found {
		return nil, errors.NewNotFoundError("unknown upstream " + upstream)
	}
	return p, nil
}

func (app *proxyApp) Search(ctx context.Context, upstream, entityType string, filters map[string]string, maxHits int) (*tables.Table, error) {
	p, err := app.portal(upstream)
	if err != nil {
		return nil, err
	}

	return p.Search(ctx, entityType, filters, maxHits)
}

func (app *proxyApp) SearchTables(ctx context.Context, upstream, entityType string, filters map[string]string, maxHits int) (*tables.TableSet, error) {
	p, err := app.portal(upstream)
	if err != nil {
		return nil, err
	}

	return p.SearchTables(ctx, entityType, filters, maxHits)
}

func (app *proxyApp) FetchByAccession(ctx context.Context, upstream, entityType string, accessions []string) (*holofood.FetchResult, error) {
	p, err := app.portal(upstream)
	if err != nil {
		return nil, err
	}

	return p.FetchByAccession(ctx, entityType, accessions)
}

func (app *proxyApp) AssembleResult(ctx context.Context, upstream string, accessions []string) (*holofood.ResultContainer, error) {
	p, err := app.portal(upstream)
	if err != nil {
		return nil, err
	}

	return p.AssembleResult(ctx, accessions)
}

func (app *proxyApp) ResponseTTLFor(upstream string) (time.Duration, bool) {
	u, found := app.config[upstream]
	if !found || !u.Cache.Enabled {
		return 0, false
	}

	return u.ResponseTTL(), true
}
