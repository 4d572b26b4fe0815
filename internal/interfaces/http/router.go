package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orders     *ordering.OrderUseCase
	OrderLists *ordering.OrderListUseCase
	Bus        repository.MaterialEventBus
	JWTSecret  string
	// Shutdown al cerrarse termina los flujos SSE abiertos.
	Shutdown <-chan struct{}
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	purchasing := RequireRole(jwt.RoleAdmin, jwt.RoleCompras)

	// Pedidos
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders, deps.OrderLists)
	orders.Get("/", orderHandler.List)
	orders.Get("/export", purchasing, orderHandler.Export)
	orders.Get("/bulk-selection", purchasing, orderHandler.BulkSelection)
	orders.Post("/bulk", purchasing, orderHandler.Bulk)
	orders.Post("/:id/supplemental", purchasing, orderHandler.Supplemental)
	orders.Post("/:id", purchasing, orderHandler.Place)
	orders.Delete("/:id", purchasing, orderHandler.Cancel)

	// Materiales (cualquier rol)
	materials := api.Group("/materials")
	materialHandler := NewMaterialHandler(deps.Orders, deps.Bus, deps.Shutdown)
	materials.Get("/events", materialHandler.Events)
	materials.Get("/by-material-id/:materialId", materialHandler.ByMaterialID)
	materials.Post("/:id/reorder", materialHandler.Reorder)
}
