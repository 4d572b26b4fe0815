package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/solar-inventario/internal/application/dto"
	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
)

// MaterialHandler consulta por QR, alta en reposición y flujo de cambios (protegido).
type MaterialHandler struct {
	orders    *ordering.OrderUseCase
	bus       repository.MaterialEventBus
	done      <-chan struct{}
	keepAlive time.Duration
}

// NewMaterialHandler construye el handler. Los flujos SSE terminan al cerrarse done.
func NewMaterialHandler(orders *ordering.OrderUseCase, bus repository.MaterialEventBus, done <-chan struct{}) *MaterialHandler {
	return &MaterialHandler{orders: orders, bus: bus, done: done, keepAlive: 25 * time.Second}
}

// Reorder godoc
// @Summary      Añadir a la lista de reposición
// @Description  Marca el material con stock -1 y stock_state "reorder". Solo con stock >= 0.
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de registro del material"
// @Success      200  {object}  dto.OrderResultResponse
// @Failure      409  {object}  dto.OrderResultResponse
// @Failure      503  {object}  dto.OrderResultResponse
// @Router       /api/materials/{id}/reorder [post]
func (h *MaterialHandler) Reorder(c *fiber.Ctx) error {
	return writeResult(c, h.orders.AddToReorderList(c.UserContext(), c.Params("id")))
}

// ByMaterialID godoc
// @Summary      Buscar material por código QR
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        materialId  path  string  true  "Identificador humano (etiqueta QR)"
// @Success      200  {object}  dto.MaterialResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/by-material-id/{materialId} [get]
func (h *MaterialHandler) ByMaterialID(c *fiber.Ctx) error {
	m, err := h.orders.LookupByMaterialID(c.UserContext(), c.Params("materialId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewMaterialResponse(m))
}

// Events godoc
// @Summary      Flujo de cambios de materiales (Server-Sent Events)
// @Tags         materials
// @Security     Bearer
// @Produce      text/event-stream
// @Success      200
// @Router       /api/materials/events [get]
func (h *MaterialHandler) Events(c *fiber.Ctx) error {
	if h.bus == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "NO_EVENTS", Message: "bus de cambios no configurado"})
	}
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := make(chan entity.MaterialChange, 32)
		err := h.bus.Subscribe(ctx, func(change entity.MaterialChange) {
			select {
			case events <- change:
			default: // cliente lento: se descarta
			}
		})
		if err != nil {
			return
		}

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		for {
			if err := w.Flush(); err != nil {
				return // cliente desconectado
			}
			select {
			case <-h.done:
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case change := <-events:
				if err := WriteEvent(w, change); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// WriteEvent escribe un cambio en formato SSE (event + data JSON).
func WriteEvent(w io.Writer, change entity.MaterialChange) error {
	raw, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s-%d\nevent: %s\ndata: %s\n\n", change.ID, change.At.UnixNano(), change.Op, raw)
	return err
}
