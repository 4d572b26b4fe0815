package ordering

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BulkItem un material del pedido masivo con su cantidad y precio opcional.
type BulkItem struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// BulkPlaceOrders aplica PlaceOrder a cada elemento de forma independiente y concurrente
// (hasta BulkConcurrency escrituras a la vez). Devuelve un Result por elemento, en el
// orden de entrada. Un fallo no detiene ni revierte los demás.
func (uc *OrderUseCase) BulkPlaceOrders(ctx context.Context, items []BulkItem) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group
	g.SetLimit(uc.opts.BulkConcurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = uc.PlaceOrder(ctx, item.ID, item.Quantity, item.Price)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	ev := uc.log.Info()
	if failed > 0 {
		ev = uc.log.Warn()
	}
	ev.Int("items", len(items)).Int("failed", failed).Msg("pedido masivo procesado")
	return results
}
