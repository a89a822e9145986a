package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cache stores rendered portal responses so that repeated identical queries
// do not hit the upstream portal again within the ttl.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Purge(ctx context.Context) (int64, error)
}

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string
}

func LoadConfiguration(ctx context.Context) Config {
	return Config{
		host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		user:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		dbname:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "holofood"),
		sslmode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
	}
}

func (c Config) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

// Enabled reports whether a database was configured at all. Running without
// one is fine, the proxy just forwards every request upstream.
func (c Config) Enabled() bool {
	return c.host != ""
}

type pgCache struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, cfg Config) (Cache, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		return nil, err
	}

	cache := &pgCache{pool: pool}

	err = cache.initialize(ctx)
	if err != nil {
		return nil, err
	}

	return cache, nil
}

func (c *pgCache) initialize(ctx context.Context) error {
	sql := `
		CREATE TABLE IF NOT EXISTS response_cache (
			key text PRIMARY KEY,
			body bytea NOT NULL,
			expires_at timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS response_cache_expiry ON response_cache (expires_at);`

	_, err := c.pool.Exec(ctx, sql)
	return err
}

func (c *pgCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sql := `SELECT body FROM response_cache WHERE key=$1 AND expires_at > now();`

	var body []byte
	err := c.pool.QueryRow(ctx, sql, key).Scan(&body)

	if err == pgx.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return body, true, nil
}

func (c *pgCache) Put(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	sql := `
		INSERT INTO response_cache (key, body, expires_at) VALUES ($1, $2, now() + $3)
		ON CONFLICT (key) DO UPDATE SET body=EXCLUDED.body, expires_at=EXCLUDED.expires_at;`

	_, err := c.pool.Exec(ctx, sql, key, body, ttl)
	return err
}

// Purge drops expired entries and returns the number of rows removed. Meant
// to be run periodically by the proxy itself.
func (c *pgCache) Purge(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM response_cache WHERE expires_at <= now();`)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// RunPurger purges the cache at the given interval until ctx is cancelled.
func RunPurger(ctx context.Context, cache Cache, interval time.Duration) {
	log := logging.GetFromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := cache.Purge(ctx)
			if err != nil {
				log.Error("failed to purge response cache", "err", err.Error())
				continue
			}

			if count > 0 {
				log.Debug("purged expired cache entries", "count", count)
			}
		}
	}
}
