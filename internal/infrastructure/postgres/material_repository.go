package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, material_id, description, manufacturer, link, price, items_per_unit, order_quantity,
	stock, heat_stock, stock_state, exclude_from_auto_order, order_status, order_date, ordered_quantity,
	version, created_at, updated_at`

// MaterialRepo implementación de MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador de persistencia para materiales. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

// Create persiste un nuevo material. Version inicia en 1.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now

	var (
		status    *string
		orderDate *time.Time
		orderQty  *int
	)
	if m.Order != nil {
		s := entity.OrderStatusOrdered
		status, orderDate, orderQty = &s, &m.Order.Date, &m.Order.Quantity
	}
	query := `
		INSERT INTO materials (id, material_id, description, manufacturer, link, price, items_per_unit, order_quantity,
			stock, heat_stock, stock_state, exclude_from_auto_order, order_status, order_date, ordered_quantity,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MaterialID, m.Description, m.Manufacturer, m.Link, nullDecimal(m.Price), m.ItemsPerUnit, m.OrderQuantity,
		m.Stock, m.ReorderThreshold, m.StockState, m.ExcludeFromAutoOrder, status, orderDate, orderQty,
		m.Version, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// List lista todos los materiales en orden de inserción.
func (r *MaterialRepo) List(ctx context.Context) ([]*entity.Material, error) {
	rows, err := r.q.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetByID obtiene un material por ID de registro.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// GetByMaterialID obtiene un material por su identificador humano (QR).
func (r *MaterialRepo) GetByMaterialID(ctx context.Context, materialID string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE material_id = $1`, materialID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material by material_id: %w", err)
	}
	return m, nil
}

// Update aplica un patch parcial sin control de versión.
func (r *MaterialRepo) Update(ctx context.Context, id string, patch repository.MaterialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	sets, args := patchClauses(patch, 2)
	query := fmt.Sprintf(`UPDATE materials SET %s WHERE id = $1`, strings.Join(sets, ", "))
	cmd, err := r.q.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("update material: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateIfVersion aplica el patch solo si version coincide (compare-and-swap).
func (r *MaterialRepo) UpdateIfVersion(ctx context.Context, id string, version int64, patch repository.MaterialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	sets, args := patchClauses(patch, 3)
	query := fmt.Sprintf(`UPDATE materials SET %s WHERE id = $1 AND version = $2`, strings.Join(sets, ", "))
	cmd, err := r.q.Exec(ctx, query, append([]any{id, version}, args...)...)
	if err != nil {
		return fmt.Errorf("update material if version: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check material: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// patchClauses traduce el patch a cláusulas SET; los placeholders empiezan en first.
// Siempre incrementa version y actualiza updated_at.
func patchClauses(p repository.MaterialPatch, first int) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, first+len(args)))
		args = append(args, v)
	}
	if p.Stock != nil {
		add("stock", *p.Stock)
	}
	if p.StockState != nil {
		add("stock_state", *p.StockState)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Order != nil {
		add("order_status", entity.OrderStatusOrdered)
		add("order_date", p.Order.Date)
		add("ordered_quantity", p.Order.Quantity)
	}
	if p.ClearOrder {
		sets = append(sets, "order_status = NULL", "order_date = NULL", "ordered_quantity = NULL")
	}
	sets = append(sets, "version = version + 1", "updated_at = now()")
	return sets, args
}

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var (
		m         entity.Material
		price     decimal.NullDecimal
		status    *string
		orderDate *time.Time
		orderQty  *int
	)
	if err := row.Scan(
		&m.ID, &m.MaterialID, &m.Description, &m.Manufacturer, &m.Link, &price, &m.ItemsPerUnit, &m.OrderQuantity,
		&m.Stock, &m.ReorderThreshold, &m.StockState, &m.ExcludeFromAutoOrder, &status, &orderDate, &orderQty,
		&m.Version, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if price.Valid {
		p := price.Decimal
		m.Price = &p
	}
	if status != nil && *status == entity.OrderStatusOrdered && orderDate != nil && orderQty != nil {
		m.Order = &entity.OrderInfo{Date: *orderDate, Quantity: *orderQty}
	}
	return &m, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
