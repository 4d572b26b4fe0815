package ordering

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

// Criterios de orden opcionales de la proyección.
const (
	SortNone       = ""
	SortMaterialID = "materialId"
	SortStock      = "stock"
)

// OrderListUseCase genera la lista de pedidos a partir de la instantánea actual del almacén.
// No guarda caché: cada llamada relee todos los materiales.
type OrderListUseCase struct {
	repo     repository.MaterialRepository
	exporter OrderListExporter
	log      *logger.Logger
	timeout  time.Duration
}

// NewOrderListUseCase construye el caso de uso. exporter puede ser nil si no se exporta.
func NewOrderListUseCase(
	repo repository.MaterialRepository,
	exporter OrderListExporter,
	log *logger.Logger,
	timeout time.Duration,
) *OrderListUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OrderListUseCase{repo: repo, exporter: exporter, log: log.Component("order_list"), timeout: timeout}
}

// OrderList devuelve la proyección, opcionalmente ordenada por sortBy.
func (uc *OrderListUseCase) OrderList(ctx context.Context, sortBy string) (inventory.OrderList, error) {
	if !validSort(sortBy) {
		return inventory.OrderList{}, fmt.Errorf("%w: orden %q", domain.ErrInvalidInput, sortBy)
	}
	materials, err := uc.snapshot(ctx)
	if err != nil {
		return inventory.OrderList{}, err
	}
	list := inventory.BuildOrderList(materials)
	sortOrderList(&list, sortBy)

	uc.log.Debug().
		Int("to_order", list.Stats.ToOrderCount).
		Int("ordered", list.Stats.OrderedCount).
		Int("excluded", list.Stats.ExcludedCount).
		Msg("lista de pedidos generada")
	return list, nil
}

// Export escribe la lista de pedidos con el exportador configurado.
func (uc *OrderListUseCase) Export(ctx context.Context, w io.Writer, sortBy string) error {
	if uc.exporter == nil {
		return fmt.Errorf("exportador no configurado")
	}
	list, err := uc.OrderList(ctx, sortBy)
	if err != nil {
		return err
	}
	return uc.exporter.Export(w, list)
}

// BulkSelection materiales que entran por defecto en un pedido masivo:
// stock negativo, o stock bajo sin exclusión; nunca pedidos ni excluidos.
func (uc *OrderListUseCase) BulkSelection(ctx context.Context) ([]inventory.BulkCandidate, error) {
	materials, err := uc.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return inventory.BulkSelection(materials), nil
}

// BulkItems convierte la selección en elementos listos para BulkPlaceOrders.
func BulkItems(candidates []inventory.BulkCandidate) []BulkItem {
	items := make([]BulkItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, BulkItem{ID: c.Material.ID, Quantity: c.Quantity, Price: c.Price})
	}
	return items
}

func (uc *OrderListUseCase) snapshot(ctx context.Context) ([]*entity.Material, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	materials, err := uc.repo.List(ctx)
	if err != nil {
		return nil, domain.NewStorageError("listing materials", err)
	}
	return materials, nil
}

func validSort(sortBy string) bool {
	switch sortBy {
	case SortNone, SortMaterialID, SortStock:
		return true
	}
	return false
}

// sortOrderList ordena ambas listas; estable para conservar el orden del almacén en empates.
func sortOrderList(list *inventory.OrderList, sortBy string) {
	var less func(a, b *entity.Material) bool
	switch sortBy {
	case SortMaterialID:
		less = func(a, b *entity.Material) bool { return a.MaterialID < b.MaterialID }
	case SortStock:
		less = func(a, b *entity.Material) bool {
			if a.Stock != b.Stock {
				return a.Stock < b.Stock
			}
			return a.MaterialID < b.MaterialID
		}
	default:
		return
	}
	sort.SliceStable(list.Entries, func(i, j int) bool {
		return less(list.Entries[i].Material, list.Entries[j].Material)
	})
	sort.SliceStable(list.ExcludedLow, func(i, j int) bool {
		return less(list.ExcludedLow[i], list.ExcludedLow[j])
	})
}
