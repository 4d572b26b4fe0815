package repository

import (
	"context"
	"errors"

	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MaterialPatch actualización parcial: solo se modifican los campos informados.
// Order y ClearOrder son excluyentes; ClearOrder borra estado, fecha y cantidad en una sola escritura.
type MaterialPatch struct {
	Stock      *int
	StockState *string
	Price      *decimal.Decimal
	Order      *entity.OrderInfo
	ClearOrder bool
}

// ErrInvalidPatch patch contradictorio o vacío.
var ErrInvalidPatch = errors.New("patch de material inválido")

// Validate rechaza patches vacíos o que fijan y borran el pedido a la vez.
func (p MaterialPatch) Validate() error {
	if p.Order != nil && p.ClearOrder {
		return ErrInvalidPatch
	}
	if p.Stock == nil && p.StockState == nil && p.Price == nil && p.Order == nil && !p.ClearOrder {
		return ErrInvalidPatch
	}
	return nil
}

// Apply aplica el patch sobre una copia del material y la devuelve. No toca Version.
func (p MaterialPatch) Apply(m *entity.Material) *entity.Material {
	out := m.Clone()
	if p.Stock != nil {
		out.Stock = *p.Stock
	}
	if p.StockState != nil {
		out.StockState = *p.StockState
	}
	if p.Price != nil {
		price := *p.Price
		out.Price = &price
	}
	if p.Order != nil {
		o := *p.Order
		out.Order = &o
	}
	if p.ClearOrder {
		out.Order = nil
	}
	return out
}

// MaterialRepository puerto hacia el almacén de materiales (documentos).
// List respeta el orden de inserción del almacén.
// GetByID y GetByMaterialID devuelven (nil, nil) si no existe.
// Update y UpdateIfVersion devuelven domain.ErrNotFound si el registro no existe;
// UpdateIfVersion devuelve domain.ErrConflict si la versión no coincide.
type MaterialRepository interface {
	Create(ctx context.Context, m *entity.Material) error
	List(ctx context.Context) ([]*entity.Material, error)
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	GetByMaterialID(ctx context.Context, materialID string) (*entity.Material, error)
	Update(ctx context.Context, id string, patch MaterialPatch) error
	UpdateIfVersion(ctx context.Context, id string, version int64, patch MaterialPatch) error
}

// MaterialEventBus publica y distribuye cambios de materiales (suscripción en vivo).
type MaterialEventBus interface {
	Publish(ctx context.Context, change entity.MaterialChange) error
	// Subscribe registra fn y regresa en cuanto la suscripción está activa;
	// los eventos se entregan a fn hasta que ctx se cancele.
	Subscribe(ctx context.Context, fn func(entity.MaterialChange)) error
	Close() error
}
