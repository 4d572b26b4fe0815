package notify

import (
	"context"
	"errors"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

// LogNotifier deja constancia de cada notificación al usuario en el log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Component("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, r ordering.Result) error {
	ev := n.log.Info()
	switch r.Outcome() {
	case "warning":
		ev = n.log.Warn().Str("warning", r.Warning)
	case "error":
		ev = n.log.Error().Str("code", r.ErrorCode).Bool("retryable", r.Retryable)
	}
	ev.Str("op", r.Op).Str("material_id", r.MaterialID).Msg(r.Message)
	return nil
}

// Multi reparte cada resultado entre varios notificadores; un fallo no corta a los demás.
type Multi []ordering.Notifier

func (m Multi) Notify(ctx context.Context, r ordering.Result) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
