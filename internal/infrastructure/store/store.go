// Package store selecciona el almacén de materiales y el bus de cambios según la configuración.
package store

import (
	"context"
	"fmt"

	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/redisbus"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/sqlite"
	"github.com/jhoicas/solar-inventario/pkg/config"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

// OpenRepository abre el almacén indicado por STORE_DRIVER y aplica migraciones.
// El cierre devuelto libera la conexión; siempre es no nulo si err == nil.
func OpenRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.MaterialRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Msg("almacén de materiales listo")
		return postgres.NewMaterialRepository(pool), pool.Close, nil

	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Str("path", cfg.Store.SQLitePath).Msg("almacén de materiales listo")
		return sqlite.NewMaterialRepository(db), func() { _ = db.Close() }, nil

	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return memory.NewMaterialRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("STORE_DRIVER inválido: %q", cfg.Store.Driver)
}

// OpenBus usa Redis pub/sub si REDIS_ADDR está definido; si no, el bus en memoria.
func OpenBus(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.MaterialEventBus, error) {
	if cfg.Redis.Addr == "" {
		return memory.NewEventBus(), nil
	}
	bus, err := redisbus.New(ctx, cfg.Redis.Addr, cfg.Redis.Channel, log.Component("redisbus"))
	if err != nil {
		return nil, fmt.Errorf("conexión a Redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("bus de cambios en Redis")
	return bus, nil
}
