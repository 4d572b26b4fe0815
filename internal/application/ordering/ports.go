package ordering

import (
	"context"
	"io"
	"time"

	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
)

// Notifier entrega al usuario la confirmación o el error de cada operación.
// Ninguna operación termina sin notificar.
type Notifier interface {
	Notify(ctx context.Context, r Result) error
}

// Recorder registra la duración y el resultado de cada operación (métricas).
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

// OrderListExporter serializa la lista de pedidos (p. ej. a XLSX).
type OrderListExporter interface {
	Export(w io.Writer, list inventory.OrderList) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Result) error { return nil }

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
