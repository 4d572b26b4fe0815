package dto

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
)

// MaterialResponse material en respuestas HTTP. Los campos de pedido solo aparecen si está pedido.
type MaterialResponse struct {
	ID                   string           `json:"id"`
	MaterialID           string           `json:"material_id"`
	Description          string           `json:"description"`
	Manufacturer         string           `json:"manufacturer,omitempty"`
	Link                 string           `json:"link,omitempty"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	ItemsPerUnit         int              `json:"items_per_unit,omitempty"`
	OrderQuantity        int              `json:"order_quantity"`
	Stock                int              `json:"stock"`
	HeatStock            int              `json:"heat_stock"`
	StockState           string           `json:"stock_state,omitempty"`
	ExcludeFromAutoOrder bool             `json:"exclude_from_auto_order"`
	OrderStatus          string           `json:"order_status,omitempty"`
	OrderDate            *time.Time       `json:"order_date,omitempty"`
	OrderedQuantity      *int             `json:"ordered_quantity,omitempty"`
	Version              int64            `json:"version"`
}

// NewMaterialResponse mapea la entidad a su representación HTTP.
func NewMaterialResponse(m *entity.Material) MaterialResponse {
	r := MaterialResponse{
		ID:                   m.ID,
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
		Version:              m.Version,
	}
	if m.Order != nil {
		date, qty := m.Order.Date, m.Order.Quantity
		r.OrderStatus = entity.OrderStatusOrdered
		r.OrderDate = &date
		r.OrderedQuantity = &qty
	}
	return r
}

// OrderListEntryResponse entrada de la lista de pedidos.
type OrderListEntryResponse struct {
	Material        MaterialResponse `json:"material"`
	Class           string           `json:"class"`
	DisplayType     string           `json:"display_type"`
	DisplayQuantity int              `json:"display_quantity"`
}

// OrderListStatsResponse contadores de la lista.
type OrderListStatsResponse struct {
	ToOrderCount  int `json:"to_order_count"`
	OrderedCount  int `json:"ordered_count"`
	ExcludedCount int `json:"excluded_count"`
}

// OrderListResponse respuesta de GET /api/orders.
type OrderListResponse struct {
	OrderList                 []OrderListEntryResponse `json:"order_list"`
	ExcludedLowStockMaterials []MaterialResponse       `json:"excluded_low_stock_materials"`
	Stats                     OrderListStatsResponse   `json:"stats"`
}

// NewOrderListResponse mapea la proyección completa.
func NewOrderListResponse(list inventory.OrderList) OrderListResponse {
	out := OrderListResponse{
		OrderList:                 make([]OrderListEntryResponse, 0, len(list.Entries)),
		ExcludedLowStockMaterials: make([]MaterialResponse, 0, len(list.ExcludedLow)),
		Stats: OrderListStatsResponse{
			ToOrderCount:  list.Stats.ToOrderCount,
			OrderedCount:  list.Stats.OrderedCount,
			ExcludedCount: list.Stats.ExcludedCount,
		},
	}
	for _, e := range list.Entries {
		out.OrderList = append(out.OrderList, OrderListEntryResponse{
			Material:        NewMaterialResponse(e.Material),
			Class:           string(e.Class),
			DisplayType:     string(e.DisplayType),
			DisplayQuantity: e.DisplayQuantity,
		})
	}
	for _, m := range list.ExcludedLow {
		out.ExcludedLowStockMaterials = append(out.ExcludedLowStockMaterials, NewMaterialResponse(m))
	}
	return out
}

// PlaceOrderRequest body de POST /api/orders/:id y /api/orders/:id/supplemental.
// Quantity se recibe como número JSON para poder rechazar decimales como cantidad inválida.
type PlaceOrderRequest struct {
	Quantity json.Number      `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// IntQuantity devuelve la cantidad si es un entero; 0 en otro caso.
func (r PlaceOrderRequest) IntQuantity() int {
	return intQuantity(r.Quantity)
}

// BulkOrderItemRequest elemento de POST /api/orders/bulk.
type BulkOrderItemRequest struct {
	ID       string           `json:"id"`
	Quantity json.Number      `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// BulkOrderRequest body de POST /api/orders/bulk.
type BulkOrderRequest struct {
	Items []BulkOrderItemRequest `json:"items"`
}

// BulkItems convierte la petición en elementos del caso de uso.
func (r BulkOrderRequest) BulkItems() []ordering.BulkItem {
	items := make([]ordering.BulkItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ordering.BulkItem{ID: it.ID, Quantity: intQuantity(it.Quantity), Price: it.Price})
	}
	return items
}

func intQuantity(n json.Number) int {
	v, err := n.Int64()
	if err != nil || v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int(v)
}

// OrderResultResponse resultado de una operación de pedido.
type OrderResultResponse struct {
	ID          string            `json:"id"`
	MaterialID  string            `json:"material_id,omitempty"`
	Op          string            `json:"op"`
	OK          bool              `json:"ok"`
	Quantity    int               `json:"quantity,omitempty"`
	DisplayType string            `json:"display_type,omitempty"`
	Message     string            `json:"message"`
	Warning     string            `json:"warning,omitempty"`
	ErrorCode   string            `json:"error_code,omitempty"`
	Retryable   bool              `json:"retryable,omitempty"`
	Material    *MaterialResponse `json:"material,omitempty"`
}

// NewOrderResultResponse mapea un Result.
func NewOrderResultResponse(r ordering.Result) OrderResultResponse {
	out := OrderResultResponse{
		ID:          r.ID,
		MaterialID:  r.MaterialID,
		Op:          r.Op,
		OK:          r.OK,
		Quantity:    r.Quantity,
		DisplayType: string(r.DisplayType),
		Message:     r.Message,
		Warning:     r.Warning,
		ErrorCode:   r.ErrorCode,
		Retryable:   r.Retryable,
	}
	if r.Material != nil {
		m := NewMaterialResponse(r.Material)
		out.Material = &m
	}
	return out
}

// BulkOrderResponse respuesta de POST /api/orders/bulk: un resultado por elemento, en orden.
type BulkOrderResponse struct {
	Results   []OrderResultResponse `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// NewBulkOrderResponse mapea los resultados y cuenta éxitos y fallos.
func NewBulkOrderResponse(results []ordering.Result) BulkOrderResponse {
	out := BulkOrderResponse{Results: make([]OrderResultResponse, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, NewOrderResultResponse(r))
		if r.OK {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}

// BulkSelectionItemResponse material propuesto para el pedido masivo.
type BulkSelectionItemResponse struct {
	Material MaterialResponse `json:"material"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// NewBulkSelectionResponse mapea la selección por defecto.
func NewBulkSelectionResponse(candidates []inventory.BulkCandidate) []BulkSelectionItemResponse {
	out := make([]BulkSelectionItemResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, BulkSelectionItemResponse{
			Material: NewMaterialResponse(c.Material),
			Quantity: c.Quantity,
			Price:    c.Price,
		})
	}
	return out
}
