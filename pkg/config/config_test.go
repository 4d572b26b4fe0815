package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/solar-inventario/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Load
// ──────────────────────────────────────────────────────────────────────────────

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Chdir(t.TempDir()) // sin .env ni config/
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "materiales.db", cfg.Store.SQLitePath)
	assert.Equal(t, 20*time.Second, cfg.Ordering.WriteTimeout)
	assert.Equal(t, 5, cfg.Ordering.CASMaxAttempts)
	assert.Equal(t, 8, cfg.Ordering.BulkConcurrency)
	assert.Equal(t, "materials", cfg.Redis.Channel)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("ORDER_WRITE_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver, "el driver se normaliza a minúsculas")
	assert.Equal(t, 5*time.Second, cfg.Ordering.WriteTimeout)
	assert.EqualValues(t, -100123, cfg.Telegram.ChatID)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := config.Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validate
// ──────────────────────────────────────────────────────────────────────────────

func validConfig() config.Config {
	return config.Config{
		Store:    config.StoreConfig{Driver: config.StoreDriverSQLite, SQLitePath: "x.db"},
		Ordering: config.OrderingConfig{WriteTimeout: time.Second, CASMaxAttempts: 1, BulkConcurrency: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"válida", func(*config.Config) {}, true},
		{"sqlite sin ruta", func(c *config.Config) { c.Store.SQLitePath = "" }, false},
		{"postgres sin ruta sqlite", func(c *config.Config) { c.Store.Driver = config.StoreDriverPostgres; c.Store.SQLitePath = "" }, true},
		{"timeout cero", func(c *config.Config) { c.Ordering.WriteTimeout = 0 }, false},
		{"sin intentos CAS", func(c *config.Config) { c.Ordering.CASMaxAttempts = 0 }, false},
		{"concurrencia cero", func(c *config.Config) { c.Ordering.BulkConcurrency = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pv", Password: "p@ss/w", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://pv:p%40ss%2Fw@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
