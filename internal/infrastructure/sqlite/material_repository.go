package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// materialDoc forma del documento JSON persistido. Los campos de pedido solo existen si orderStatus = "ordered".
type materialDoc struct {
	MaterialID           string           `json:"materialId"`
	Description          string           `json:"description,omitempty"`
	Manufacturer         string           `json:"manufacturer,omitempty"`
	Link                 string           `json:"link,omitempty"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	ItemsPerUnit         int              `json:"itemsPerUnit,omitempty"`
	OrderQuantity        int              `json:"orderQuantity,omitempty"`
	Stock                int              `json:"stock"`
	HeatStock            int              `json:"heatStock,omitempty"`
	StockState           string           `json:"stockState,omitempty"`
	ExcludeFromAutoOrder bool             `json:"excludeFromAutoOrder,omitempty"`
	OrderStatus          string           `json:"orderStatus,omitempty"`
	OrderDate            *time.Time       `json:"orderDate,omitempty"`
	OrderedQuantity      *int             `json:"orderedQuantity,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

func toDoc(m *entity.Material) materialDoc {
	d := materialDoc{
		MaterialID:           m.MaterialID,
		Description:          m.Description,
		Manufacturer:         m.Manufacturer,
		Link:                 m.Link,
		Price:                m.Price,
		ItemsPerUnit:         m.ItemsPerUnit,
		OrderQuantity:        m.OrderQuantity,
		Stock:                m.Stock,
		HeatStock:            m.ReorderThreshold,
		StockState:           m.StockState,
		ExcludeFromAutoOrder: m.ExcludeFromAutoOrder,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.Order != nil {
		date, qty := m.Order.Date, m.Order.Quantity
		d.OrderStatus = entity.OrderStatusOrdered
		d.OrderDate = &date
		d.OrderedQuantity = &qty
	}
	return d
}

func (d materialDoc) toEntity(id string, version int64) *entity.Material {
	m := &entity.Material{
		ID:                   id,
		MaterialID:           d.MaterialID,
		Description:          d.Description,
		Manufacturer:         d.Manufacturer,
		Link:                 d.Link,
		Price:                d.Price,
		ItemsPerUnit:         d.ItemsPerUnit,
		OrderQuantity:        d.OrderQuantity,
		Stock:                d.Stock,
		ReorderThreshold:     d.HeatStock,
		StockState:           d.StockState,
		ExcludeFromAutoOrder: d.ExcludeFromAutoOrder,
		Version:              version,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.OrderStatus == entity.OrderStatusOrdered && d.OrderDate != nil && d.OrderedQuantity != nil {
		m.Order = &entity.OrderInfo{Date: *d.OrderDate, Quantity: *d.OrderedQuantity}
	}
	return m
}

// MaterialRepo almacén de materiales como documentos JSON en SQLite.
type MaterialRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewMaterialRepository construye el almacén sobre una base ya migrada.
func NewMaterialRepository(db *sql.DB) *MaterialRepo {
	return &MaterialRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserta el documento del material. Version inicia en 1.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := r.now()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	raw, err := json.Marshal(toDoc(m))
	if err != nil {
		return fmt.Errorf("encoding material: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO materials (id, material_id, doc, version) VALUES (?, ?, ?, ?)`,
		m.ID, m.MaterialID, string(raw), m.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("inserting material: %w", err)
	}
	return nil
}

// List devuelve todos los materiales en orden de inserción.
func (r *MaterialRepo) List(ctx context.Context) ([]*entity.Material, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc, version FROM materials ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing materials: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetByID obtiene un material por ID de registro.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	return r.getOne(ctx, `SELECT id, doc, version FROM materials WHERE id = ?`, id)
}

// GetByMaterialID obtiene un material por su identificador humano (QR).
func (r *MaterialRepo) GetByMaterialID(ctx context.Context, materialID string) (*entity.Material, error) {
	return r.getOne(ctx, `SELECT id, doc, version FROM materials WHERE material_id = ?`, materialID)
}

// Update aplica el patch sobre el documento actual (last-write-wins).
func (r *MaterialRepo) Update(ctx context.Context, id string, patch repository.MaterialPatch) error {
	return r.patch(ctx, id, nil, patch)
}

// UpdateIfVersion aplica el patch solo si la versión almacenada coincide.
func (r *MaterialRepo) UpdateIfVersion(ctx context.Context, id string, version int64, patch repository.MaterialPatch) error {
	return r.patch(ctx, id, &version, patch)
}

// patch lee el documento, fusiona los campos informados y lo reescribe en una transacción.
func (r *MaterialRepo) patch(ctx context.Context, id string, expected *int64, patch repository.MaterialPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := scanMaterial(tx.QueryRowContext(ctx, `SELECT id, doc, version FROM materials WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if expected != nil && cur.Version != *expected {
		return domain.ErrConflict
	}

	next := patch.Apply(cur)
	next.UpdatedAt = r.now()
	raw, err := json.Marshal(toDoc(next))
	if err != nil {
		return fmt.Errorf("encoding material: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE materials SET doc = ?, version = version + 1 WHERE id = ? AND version = ?`,
		string(raw), id, cur.Version,
	)
	if err != nil {
		return fmt.Errorf("updating material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing material update: %w", err)
	}
	return nil
}

func (r *MaterialRepo) getOne(ctx context.Context, query string, arg string) (*entity.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (*entity.Material, error) {
	var (
		id      string
		raw     string
		version int64
	)
	if err := row.Scan(&id, &raw, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning material: %w", err)
	}
	var d materialDoc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decoding material %s: %w", id, err)
	}
	return d.toEntity(id, version), nil
}
