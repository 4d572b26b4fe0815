package inventory

import "github.com/jhoicas/solar-inventario/internal/domain/entity"

// DisplayType tipo de presentación de una entrada de la lista de pedidos.
type DisplayType string

const (
	DisplayOrdered DisplayType = "ordered"
	// DisplayAdditional intención del usuario (cantidad adicional sobre un pedido abierto);
	// Classify nunca la produce.
	DisplayAdditional DisplayType = "additional"
	DisplayNeeded     DisplayType = "needed"
	DisplayLow        DisplayType = "low"
)

// OrderListEntry vista derivada (no persistida) de un material dentro de la lista de pedidos.
type OrderListEntry struct {
	Material        *entity.Material
	Class           Class
	DisplayType     DisplayType
	DisplayQuantity int
}

// OrderListStats contadores de resumen.
type OrderListStats struct {
	ToOrderCount  int // needed + low
	OrderedCount  int
	ExcludedCount int
}

// OrderList proyección completa: lista de pedidos, excluidos con stock bajo y contadores.
type OrderList struct {
	Entries     []OrderListEntry
	ExcludedLow []*entity.Material
	Stats       OrderListStats
}

// BuildOrderList proyecta la colección de materiales en la lista de pedidos.
// Pura e idempotente: conserva el orden de entrada, copia los materiales y nunca
// coloca un material en ambas listas.
func BuildOrderList(materials []*entity.Material) OrderList {
	out := OrderList{
		Entries:     make([]OrderListEntry, 0),
		ExcludedLow: make([]*entity.Material, 0),
	}
	for _, m := range materials {
		if m == nil {
			continue
		}
		class := Classify(m)
		switch class {
		case ClassOrdered:
			out.Entries = append(out.Entries, newEntry(m, class, DisplayOrdered, m.Order.Quantity))
			out.Stats.OrderedCount++
		case ClassNeeded:
			out.Entries = append(out.Entries, newEntry(m, class, DisplayNeeded, m.OrderQuantity))
			out.Stats.ToOrderCount++
		case ClassLow:
			out.Entries = append(out.Entries, newEntry(m, class, DisplayLow, m.OrderQuantity))
			out.Stats.ToOrderCount++
		case ClassExcludedLow:
			out.ExcludedLow = append(out.ExcludedLow, m.Clone())
			out.Stats.ExcludedCount++
		}
	}
	return out
}

// NewAdditionalEntry entrada para la intención "agregar cantidad" sobre un pedido abierto.
// DisplayQuantity es el total resultante.
func NewAdditionalEntry(m *entity.Material, additional int) OrderListEntry {
	total := additional
	if m.IsOrdered() {
		total += m.Order.Quantity
	}
	return newEntry(m, Classify(m), DisplayAdditional, total)
}

func newEntry(m *entity.Material, class Class, dt DisplayType, qty int) OrderListEntry {
	return OrderListEntry{
		Material:        m.Clone(),
		Class:           class,
		DisplayType:     dt,
		DisplayQuantity: qty,
	}
}
