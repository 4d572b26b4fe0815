package inventory

import (
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BulkCandidate material elegible para un pedido masivo con su cantidad y precio por defecto.
type BulkCandidate struct {
	Material *entity.Material
	Quantity int
	Price    *decimal.Decimal
}

// IsBulkEligible stock negativo, o 0 < stock <= umbral sin exclusión; nunca pedidos ni excluidos.
func IsBulkEligible(m *entity.Material) bool {
	return Classify(m).NeedsOrder()
}

// DefaultOrderQuantity cantidad de pedido del proveedor; 1 si no está definida.
func DefaultOrderQuantity(m *entity.Material) int {
	if m.OrderQuantity > 0 {
		return m.OrderQuantity
	}
	return 1
}

// BulkSelection devuelve los materiales elegibles para el pedido masivo, en orden de entrada.
func BulkSelection(materials []*entity.Material) []BulkCandidate {
	out := make([]BulkCandidate, 0)
	for _, m := range materials {
		if m == nil || !IsBulkEligible(m) {
			continue
		}
		c := m.Clone()
		out = append(out, BulkCandidate{
			Material: c,
			Quantity: DefaultOrderQuantity(c),
			Price:    c.Price,
		})
	}
	return out
}
