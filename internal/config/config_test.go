package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "netsuite_simulation_secret", cfg.Auth.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Len(t, cfg.Auth.Customers, 3)
	assert.Equal(t, "CUST003", cfg.Auth.Customers[2].ID)
	assert.Equal(t, model.TierEnterprise, cfg.Auth.Customers[2].Tier)

	assert.Equal(t, 30, cfg.Tiers["standard"].RateLimit)
	assert.Equal(t, 300, cfg.Tiers["enterprise"].RateLimit)

	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "rl:cust:", cfg.RateLimit.KeyPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay.Standard)
	assert.Equal(t, 2*time.Second, cfg.Delay.Peak.Extra)

	assert.Equal(t, "synthetic", cfg.Inventory.Backend)
	assert.Equal(t, 1000, cfg.Inventory.SampleSize)
	assert.Equal(t, 100, cfg.Inventory.DefaultPageSize)
	assert.Equal(t, 1000, cfg.Inventory.MaxPageSize)
	assert.Equal(t, 20, cfg.Inventory.Pool.MaxConns)
	assert.Zero(t, cfg.Inventory.Pool.AcquireTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Inventory.Pool.HoldLatency)

	assert.Equal(t, "inventory.adjustments", cfg.Kafka.Topic)
	assert.False(t, cfg.Usage.Enabled)
}

func TestLoad_MergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inventory:
  backend: sqlite
  pool:
    max_conns: 2
rate_limit:
  backend: redis
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Inventory.Backend)
	assert.Equal(t, 2, cfg.Inventory.Pool.MaxConns)
	assert.Equal(t, 200*time.Millisecond, cfg.Inventory.Pool.HoldLatency, "untouched keys keep defaults")
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
}

func TestLoad_MissingUserFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("INVSIM_HTTP_ADDR", ":9999")
	t.Setenv("INVSIM_INVENTORY_POOL_MAX_CONNS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, 7, cfg.Inventory.Pool.MaxConns)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"empty secret":     func(c *Config) { c.Auth.Secret = "" },
		"customers source": func(c *Config) { c.Auth.CustomersSource = "ldap" },
		"limiter backend":  func(c *Config) { c.RateLimit.Backend = "memcached" },
		"store backend":    func(c *Config) { c.Inventory.Backend = "postgres" },
		"page sizes":       func(c *Config) { c.Inventory.DefaultPageSize = 2000 },
		"pool size":        func(c *Config) { c.Inventory.Pool.MaxConns = 0 },
		"peak hours":       func(c *Config) { c.Delay.Peak.StartHour = 18 },
		"peak probability": func(c *Config) { c.Delay.Peak.Probability = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			c.Auth.Customers = append([]model.Customer(nil), base.Auth.Customers...)
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
