// Package app assembles the configured components shared by the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/config"
	"github.com/jmehdipour/inventory-sim/internal/db"
	"github.com/jmehdipour/inventory-sim/internal/delay"
	"github.com/jmehdipour/inventory-sim/internal/inventory"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/ratelimit"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/jmehdipour/inventory-sim/internal/tier"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Tiers builds the tier registry from the tiers section.
func Tiers(cfg config.Config) (*tier.Registry, error) {
	if len(cfg.Tiers) == 0 {
		return tier.Default(), nil
	}
	m := make(map[model.Tier]tier.Limits, len(cfg.Tiers))
	for name, tc := range cfg.Tiers {
		t, ok := model.ParseTier(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", tier.ErrUnknownTier, name)
		}
		m[t] = tier.Limits{RateLimit: tc.RateLimit, Priority: tc.Priority}
	}
	return tier.New(m)
}

// Delay builds the simulated latency policy.
func Delay(cfg config.DelayConfig) delay.Policy {
	if !cfg.Enabled {
		return delay.Noop{}
	}
	return &delay.Tiered{
		Base: map[model.Tier]time.Duration{
			model.TierStandard:   cfg.Standard,
			model.TierPremium:    cfg.Premium,
			model.TierEnterprise: cfg.Enterprise,
		},
		Peak:        delay.PeakWindow{StartHour: cfg.Peak.StartHour, EndHour: cfg.Peak.EndHour},
		Probability: cfg.Peak.Probability,
		Extra:       cfg.Peak.Extra,
	}
}

// Inventory is the opened inventory store and, for sql backends, its
// database handle.
type Inventory struct {
	Store   *inventory.Store
	Repo    *repository.InventoryRepository // nil for synthetic
	DB      *sqlx.DB                        // nil for synthetic
	Dialect repository.Dialect
}

func (i *Inventory) Close() error {
	if i.DB != nil {
		return i.DB.Close()
	}
	return nil
}

// OpenSQL connects to the sql database selected by inventory.backend.
func OpenSQL(cfg config.Config) (*sqlx.DB, repository.Dialect, error) {
	switch cfg.Inventory.Backend {
	case "mysql":
		dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, poolOpts(cfg.MySQL))
		if err != nil {
			return nil, "", fmt.Errorf("mysql connect: %w", err)
		}
		return dbx, repository.DialectMySQL, nil
	case "postgres":
		dbx, err := db.NewPostgresConnection(cfg.Postgres.DSN, poolOpts(cfg.Postgres))
		if err != nil {
			return nil, "", fmt.Errorf("postgres connect: %w", err)
		}
		return dbx, repository.DialectPostgres, nil
	case "sqlite":
		dbx, err := db.NewSQLiteConnection(cfg.SQLite.DSN, poolOpts(cfg.SQLite))
		if err != nil {
			return nil, "", fmt.Errorf("sqlite connect: %w", err)
		}
		return dbx, repository.DialectSQLite, nil
	default:
		return nil, "", fmt.Errorf("inventory backend %q has no sql database", cfg.Inventory.Backend)
	}
}

// OpenInventory builds the store over the configured backend and initialises
// it (schema and sample data).
func OpenInventory(ctx context.Context, cfg config.Config) (*Inventory, error) {
	ic := cfg.Inventory
	pool := inventory.NewPool(ic.Pool.MaxConns, ic.Pool.AcquireTimeout)

	inv := &Inventory{}
	var backend inventory.Backend
	if ic.Backend == "synthetic" {
		backend = inventory.NewMemoryBackend(ic.SampleSize, ic.Seed)
	} else {
		dbx, dialect, err := OpenSQL(cfg)
		if err != nil {
			return nil, err
		}
		inv.DB, inv.Dialect = dbx, dialect
		inv.Repo = repository.NewInventoryRepository(dbx, dialect, ic.SampleSize)
		backend = inv.Repo
	}

	inv.Store = inventory.NewStore(backend, pool, ic.Pool.HoldLatency)
	if err := inv.Store.Init(ctx); err != nil {
		_ = inv.Close()
		return nil, fmt.Errorf("init inventory: %w", err)
	}
	return inv, nil
}

// Customers returns the configured customer directory. The database source
// reads the customers table of the sql inventory database.
func Customers(cfg config.Config, inv *Inventory) (repository.CustomersRepository, error) {
	if cfg.Auth.CustomersSource == "database" {
		if inv == nil || inv.DB == nil {
			return nil, errors.New("customers_source=database needs a sql inventory backend")
		}
		return repository.NewCustomersRepository(inv.DB, inv.Dialect), nil
	}
	return repository.NewStaticCustomersRepository(cfg.Auth.Customers)
}

// Limiter builds the rate limiter. With the redis backend the in-memory
// limiter serves as fallback behind a circuit breaker. The returned closer
// stops background work and releases connections.
func Limiter(cfg config.Config, tiers *tier.Registry) (ratelimit.Limiter, io.Closer, error) {
	mem := ratelimit.NewMemoryLimiter(tiers, cfg.RateLimit.CleanupInterval)
	if cfg.RateLimit.Backend != "redis" {
		return mem, closerFunc(func() error { mem.Close(); return nil }), nil
	}

	rdb, err := db.NewRedisClient(db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
		PoolSize:    cfg.Redis.PoolSize,
	})
	if err != nil {
		mem.Close()
		return nil, nil, fmt.Errorf("redis connect: %w", err)
	}
	return newRedisFallback(cfg, tiers, rdb, mem), closerFunc(func() error {
		mem.Close()
		return rdb.Close()
	}), nil
}

func newRedisFallback(cfg config.Config, tiers *tier.Registry, rdb redis.Scripter, mem *ratelimit.MemoryLimiter) ratelimit.Limiter {
	br := ratelimit.NewBreaker(cfg.RateLimit.Breaker.FailThreshold, cfg.RateLimit.Breaker.OpenFor)
	primary := ratelimit.NewRedisLimiter(rdb, tiers, cfg.RateLimit.KeyPrefix)
	return ratelimit.NewFallbackLimiter(primary, mem, br)
}

// OpenClickHouse connects to the usage analytics store.
func OpenClickHouse(cfg config.Config) (*sqlx.DB, error) {
	ch, err := db.NewClickHouseConnection(cfg.ClickHouse.DSN, poolOpts(cfg.ClickHouse))
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect: %w", err)
	}
	return ch, nil
}

func poolOpts(c config.DatabaseConfig) db.PoolOpts {
	return db.PoolOpts{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
