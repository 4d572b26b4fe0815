package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

var _ repository.MaterialEventBus = (*Bus)(nil)

// Bus reparte los cambios de materiales entre instancias vía Redis Pub/Sub.
type Bus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// New conecta con Redis y verifica la conexión con un PING.
func New(ctx context.Context, addr, channel string, log *logger.Logger) (*Bus, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, channel, log), nil
}

// NewWithClient usa un cliente ya configurado.
func NewWithClient(rdb *redis.Client, channel string, log *logger.Logger) *Bus {
	if channel == "" {
		channel = "materials"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{log: log.Component("redisbus"), rdb: rdb, channel: channel}
}

func (b *Bus) Publish(ctx context.Context, change entity.MaterialChange) error {
	raw, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *Bus) Subscribe(ctx context.Context, fn func(entity.MaterialChange)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// confirma que la suscripción quedó activa
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				change, err := decode(m.Payload)
				if err != nil {
					b.log.Warn().Err(err).Msg("payload de cambio inválido")
					continue
				}
				fn(change)
			}
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func decode(payload string) (entity.MaterialChange, error) {
	var change entity.MaterialChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return change, err
	}
	if change.ID == "" || change.Op == "" {
		return change, fmt.Errorf("cambio incompleto: %q", payload)
	}
	return change, nil
}
