package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/pkg/config"
)

func TestPatchClauses_PlaceholdersDesdeFirst(t *testing.T) {
	stock := -1
	state := entity.StockStateReorder
	sets, args := patchClauses(repository.MaterialPatch{Stock: &stock, StockState: &state}, 3)

	assert.Equal(t, []string{"stock = $3", "stock_state = $4", "version = version + 1", "updated_at = now()"}, sets)
	assert.Equal(t, []any{-1, "reorder"}, args)
}

func TestPatchClauses_PedidoCompleto(t *testing.T) {
	date := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	sets, args := patchClauses(repository.MaterialPatch{Order: &entity.OrderInfo{Date: date, Quantity: 10}}, 2)

	assert.Equal(t, []string{
		"order_status = $2", "order_date = $3", "ordered_quantity = $4",
		"version = version + 1", "updated_at = now()",
	}, sets, "estado, fecha y cantidad se escriben juntos")
	assert.Equal(t, []any{entity.OrderStatusOrdered, date, 10}, args)
}

func TestPatchClauses_CancelarBorraLosTresCampos(t *testing.T) {
	sets, args := patchClauses(repository.MaterialPatch{ClearOrder: true}, 2)
	assert.Empty(t, args)
	assert.Contains(t, sets, "order_status = NULL")
	assert.Contains(t, sets, "order_date = NULL")
	assert.Contains(t, sets, "ordered_quantity = NULL")
}

// TestMaterialRepo_Postgres requiere TEST_DATABASE_URL; si no está definido se omite.
func TestMaterialRepo_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE materials`)
	require.NoError(t, err)

	repo := NewMaterialRepository(pool)
	price := decimal.RequireFromString("189.50")
	m := &entity.Material{MaterialID: "WR-8K", Stock: 2, ReorderThreshold: 3, OrderQuantity: 1, Price: &price}
	require.NoError(t, repo.Create(ctx, m))

	order := &entity.OrderInfo{Date: time.Now().UTC().Truncate(time.Microsecond), Quantity: 4}
	require.NoError(t, repo.UpdateIfVersion(ctx, m.ID, 1, repository.MaterialPatch{Order: order}))
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, m.ID, 1, repository.MaterialPatch{ClearOrder: true}), domain.ErrConflict)

	got, err := repo.GetByMaterialID(ctx, "WR-8K")
	require.NoError(t, err)
	require.True(t, got.IsOrdered())
	assert.Equal(t, 4, got.Order.Quantity)
	assert.EqualValues(t, 2, got.Version)
	require.NotNil(t, got.Price)
	assert.True(t, got.Price.Equal(price))

	require.NoError(t, repo.Update(ctx, m.ID, repository.MaterialPatch{ClearOrder: true}))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsOrdered())
}
