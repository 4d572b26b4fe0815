package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusOrdered es el único valor persistido de orderStatus.
const OrderStatusOrdered = "ordered"

// StockStateReorder marca un material agregado manualmente a la lista de reposición (stock = -1).
const StockStateReorder = "reorder"

// OrderInfo datos de un pedido abierto. Si Material.Order es nil el material no está pedido;
// fecha y cantidad existen siempre juntas.
type OrderInfo struct {
	Date     time.Time
	Quantity int
}

// Material representa un material del almacén (módulos, inversores, cableado, fijaciones...).
// Stock puede ser negativo: significa "ya marcado para pedir" sin unidades disponibles.
type Material struct {
	ID                   string // asignado por el almacén
	MaterialID           string // identificador humano único (etiqueta QR)
	Description          string
	Manufacturer         string
	Link                 string
	Price                *decimal.Decimal // opcional; puede corregirse al pedir
	ItemsPerUnit         int
	OrderQuantity        int // cantidad estándar de pedido del proveedor
	Stock                int
	ReorderThreshold     int // "heat stock"
	StockState           string
	ExcludeFromAutoOrder bool
	Order                *OrderInfo
	Version              int64 // control de concurrencia optimista, lo gestiona el almacén
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsOrdered indica si el material tiene un pedido abierto.
func (m *Material) IsOrdered() bool {
	return m != nil && m.Order != nil
}

// OrderStatus devuelve "ordered" o "" según el estado del pedido.
func (m *Material) OrderStatus() string {
	if m.IsOrdered() {
		return OrderStatusOrdered
	}
	return ""
}

// Clone devuelve una copia profunda (Price y Order incluidos).
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	if m.Price != nil {
		p := *m.Price
		c.Price = &p
	}
	if m.Order != nil {
		o := *m.Order
		c.Order = &o
	}
	return &c
}
