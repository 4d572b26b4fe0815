package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/store"
	"github.com/jhoicas/solar-inventario/pkg/config"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

func TestOpenRepository_SQLitePersiste(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{
		Driver:     config.StoreDriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "materiales.db"),
	}}

	repo, closeFn, err := store.OpenRepository(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &entity.Material{MaterialID: "MOD-420", Stock: -2}))
	closeFn()

	// Reabrir: las migraciones son idempotentes y el dato sigue ahí.
	repo, closeFn, err = store.OpenRepository(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer closeFn()
	got, err := repo.GetByMaterialID(ctx, "MOD-420")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -2, got.Stock)
}

func TestOpenRepository_Memoria(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}
	repo, closeFn, err := store.OpenRepository(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &memory.MaterialRepo{}, repo)
}

func TestOpenRepository_DriverInvalido(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	_, _, err := store.OpenRepository(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}

func TestOpenBus_SinRedisUsaMemoria(t *testing.T) {
	bus, err := store.OpenBus(context.Background(), &config.Config{}, logger.Nop())
	require.NoError(t, err)
	defer bus.Close()
	assert.IsType(t, &memory.EventBus{}, bus)
}
