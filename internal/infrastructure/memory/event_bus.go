package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
)

var _ repository.MaterialEventBus = (*EventBus)(nil)

// subscriberBuffer eventos pendientes por suscriptor; si se llena, los nuevos se descartan.
const subscriberBuffer = 64

// EventBus bus de cambios en proceso (una sola instancia del servicio).
type EventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan entity.MaterialChange
	closed bool
}

// NewEventBus construye el bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan entity.MaterialChange)}
}

// Publish entrega el cambio a todos los suscriptores sin bloquear.
func (b *EventBus) Publish(_ context.Context, change entity.MaterialChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Subscribe registra fn; se da de baja al cancelar ctx o al cerrar el bus.
func (b *EventBus) Subscribe(ctx context.Context, fn func(entity.MaterialChange)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return context.Canceled
	}
	id := b.nextID
	b.nextID++
	ch := make(chan entity.MaterialChange, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.unsubscribe(id)
				return
			case change, ok := <-ch:
				if !ok {
					return
				}
				fn(change)
			}
		}
	}()
	return nil
}

// Close cierra todas las suscripciones.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}

func (b *EventBus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
