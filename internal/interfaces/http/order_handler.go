package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/solar-inventario/internal/application/dto"
	"github.com/jhoicas/solar-inventario/internal/application/ordering"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler lista de pedidos y operaciones de pedido (protegido).
type OrderHandler struct {
	orders *ordering.OrderUseCase
	lists  *ordering.OrderListUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(orders *ordering.OrderUseCase, lists *ordering.OrderListUseCase) *OrderHandler {
	return &OrderHandler{orders: orders, lists: lists}
}

// List godoc
// @Summary      Lista de pedidos
// @Description  Materiales pedidos, necesarios y con stock bajo, más los excluidos con stock bajo.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        sort  query  string  false  "materialId | stock (vacío = orden del almacén)"
// @Success      200  {object}  dto.OrderListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	list, err := h.lists.OrderList(c.UserContext(), c.Query("sort"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewOrderListResponse(list))
}

// Export godoc
// @Summary      Exportar lista de pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        sort  query  string  false  "materialId | stock"
// @Success      200
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders/export [get]
func (h *OrderHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.lists.Export(c.UserContext(), &buf, c.Query("sort")); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="pedidos_%s.xlsx"`, time.Now().Format("20060102_150405")))
	return c.Send(buf.Bytes())
}

// BulkSelection godoc
// @Summary      Selección por defecto del pedido masivo
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.BulkSelectionItemResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders/bulk-selection [get]
func (h *OrderHandler) BulkSelection(c *fiber.Ctx) error {
	candidates, err := h.lists.BulkSelection(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBulkSelectionResponse(candidates))
}

// Bulk godoc
// @Summary      Pedido masivo
// @Description  Registra cada elemento de forma independiente; la respuesta trae un resultado por elemento.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkOrderRequest  true  "items: id, quantity, price opcional"
// @Success      200  {object}  dto.BulkOrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders/bulk [post]
func (h *OrderHandler) Bulk(c *fiber.Ctx) error {
	var in dto.BulkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "items vacío"})
	}
	results := h.orders.BulkPlaceOrders(c.UserContext(), in.BulkItems())
	return c.JSON(dto.NewBulkOrderResponse(results))
}

// Place godoc
// @Summary      Registrar pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de registro del material"
// @Param        body  body  dto.PlaceOrderRequest  true  "quantity entero positivo, price opcional"
// @Success      200  {object}  dto.OrderResultResponse
// @Failure      400  {object}  dto.OrderResultResponse
// @Failure      404  {object}  dto.OrderResultResponse
// @Failure      503  {object}  dto.OrderResultResponse
// @Router       /api/orders/{id} [post]
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in dto.PlaceOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return writeResult(c, h.orders.PlaceOrder(c.UserContext(), c.Params("id"), in.IntQuantity(), in.Price))
}

// Supplemental godoc
// @Summary      Añadir cantidad a un pedido abierto
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de registro del material"
// @Param        body  body  dto.PlaceOrderRequest  true  "quantity adicional, price opcional"
// @Success      200  {object}  dto.OrderResultResponse
// @Failure      400  {object}  dto.OrderResultResponse
// @Failure      409  {object}  dto.OrderResultResponse
// @Failure      503  {object}  dto.OrderResultResponse
// @Router       /api/orders/{id}/supplemental [post]
func (h *OrderHandler) Supplemental(c *fiber.Ctx) error {
	var in dto.PlaceOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return writeResult(c, h.orders.AddSupplemental(c.UserContext(), c.Params("id"), in.IntQuantity(), in.Price))
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de registro del material"
// @Success      200  {object}  dto.OrderResultResponse
// @Failure      409  {object}  dto.OrderResultResponse
// @Failure      503  {object}  dto.OrderResultResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	return writeResult(c, h.orders.CancelOrder(c.UserContext(), c.Params("id")))
}
