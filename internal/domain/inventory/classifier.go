package inventory

import "github.com/jhoicas/solar-inventario/internal/domain/entity"

// Class clase de reposición de un material.
type Class string

const (
	ClassOK          Class = "ok"
	ClassLow         Class = "low"
	ClassNeeded      Class = "needed"
	ClassExcludedLow Class = "excluded-low"
	ClassOrdered     Class = "ordered"
)

// Classify determina la clase de reposición de un material (servicio de dominio puro).
// Orden de decisión, gana la primera coincidencia:
//  1. pedido abierto                                   -> ordered
//  2. excluido y (stock < 0 o 0 < stock <= umbral)     -> excluded-low
//  3. stock < 0                                        -> needed
//  4. 0 < stock <= umbral                              -> low
//  5. resto                                            -> ok
//
// stock == umbral cuenta como bajo. Stock 0 nunca dispara needed/low.
func Classify(m *entity.Material) Class {
	if m == nil {
		return ClassOK
	}
	if m.IsOrdered() {
		return ClassOrdered
	}
	negative := m.Stock < 0
	low := m.Stock > 0 && m.Stock <= threshold(m)

	if m.ExcludeFromAutoOrder && (negative || low) {
		return ClassExcludedLow
	}
	if negative {
		return ClassNeeded
	}
	if low {
		return ClassLow
	}
	return ClassOK
}

// NeedsOrder true para needed y low (se muestran igual en la lista de pedidos).
func (c Class) NeedsOrder() bool {
	return c == ClassNeeded || c == ClassLow
}

func threshold(m *entity.Material) int {
	if m.ReorderThreshold < 0 {
		return 0
	}
	return m.ReorderThreshold
}
