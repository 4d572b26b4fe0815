package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

// Options límites de las operaciones de pedido.
type Options struct {
	WriteTimeout    time.Duration // por operación; al vencer se informa StorageError
	CASMaxAttempts  int           // intentos de compare-and-swap en AddSupplemental
	BulkConcurrency int           // escrituras simultáneas en el pedido masivo
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 20 * time.Second
	}
	if o.CASMaxAttempts < 1 {
		o.CASMaxAttempts = 5
	}
	if o.BulkConcurrency < 1 {
		o.BulkConcurrency = 8
	}
	return o
}

// OrderUseCase operaciones del ciclo de vida de un pedido de material:
// registrar, añadir cantidad, cancelar y marcar para reposición.
// Ninguna operación muta el material leído antes de confirmar la escritura
// y ninguna reintenta tras un fallo del almacén.
type OrderUseCase struct {
	repo     repository.MaterialRepository
	bus      repository.MaterialEventBus
	notifier Notifier
	recorder Recorder
	log      *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewOrderUseCase construye el caso de uso. bus, notifier y recorder pueden ser nil.
func NewOrderUseCase(
	repo repository.MaterialRepository,
	bus repository.MaterialEventBus,
	notifier Notifier,
	recorder Recorder,
	log *logger.Logger,
	opts Options,
) *OrderUseCase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrderUseCase{
		repo:     repo,
		bus:      bus,
		notifier: notifier,
		recorder: recorder,
		log:      log.Component("ordering"),
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder registra un pedido de quantity unidades. Si price difiere del precio
// actual se corrige antes, en una escritura separada. Sobre un material ya pedido
// la cantidad se reemplaza.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, id string, quantity int, price *decimal.Decimal) Result {
	start := time.Now()
	res := uc.placeOrder(ctx, id, quantity, price)
	uc.finish(ctx, res, start)
	return res
}

func (uc *OrderUseCase) placeOrder(ctx context.Context, id string, quantity int, price *decimal.Decimal) Result {
	res := Result{ID: id, Op: OpPlaceOrder}
	if quantity <= 0 {
		return uc.fail(res, domain.ErrInvalidQuantity)
	}
	if price != nil && price.IsNegative() {
		return uc.fail(res, domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.WriteTimeout)
	defer cancel()

	m, err := uc.load(ctx, id)
	if err != nil {
		return uc.fail(res, err)
	}
	res.MaterialID = m.MaterialID

	m, priceErr := uc.correctPrice(ctx, m, price)

	patch := repository.MaterialPatch{Order: &entity.OrderInfo{Date: uc.now(), Quantity: quantity}}
	if err := uc.repo.Update(ctx, id, patch); err != nil {
		return uc.fail(res, writeErr("placing order", err))
	}
	uc.publish(ctx, m, entity.ChangeOrderPlaced)

	res.DisplayType = inventory.DisplayOrdered
	res.Quantity = quantity
	return uc.succeed(res, uc.confirmed(m, patch), priceErr,
		fmt.Sprintf("Pedido registrado: %s, %d uds.", m.MaterialID, quantity))
}

// AddSupplemental suma additional unidades al pedido abierto del material.
// Lectura y escritura van condicionadas a la versión (compare-and-swap) y se
// reintenta ante conflicto hasta CASMaxAttempts, de modo que dos llamadas
// simultáneas nunca pierden un incremento.
func (uc *OrderUseCase) AddSupplemental(ctx context.Context, id string, additional int, price *decimal.Decimal) Result {
	start := time.Now()
	res := uc.addSupplemental(ctx, id, additional, price)
	uc.finish(ctx, res, start)
	return res
}

func (uc *OrderUseCase) addSupplemental(ctx context.Context, id string, additional int, price *decimal.Decimal) Result {
	res := Result{ID: id, Op: OpAddSupplemental}
	if additional <= 0 {
		return uc.fail(res, domain.ErrInvalidQuantity)
	}
	if price != nil && price.IsNegative() {
		return uc.fail(res, domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.WriteTimeout)
	defer cancel()

	m, err := uc.load(ctx, id)
	if err != nil {
		return uc.fail(res, err)
	}
	res.MaterialID = m.MaterialID
	if !m.IsOrdered() {
		return uc.fail(res, domain.ErrInvalidState)
	}

	m, priceErr := uc.correctPrice(ctx, m, price)

	for attempt := 1; ; attempt++ {
		total := m.Order.Quantity + additional
		patch := repository.MaterialPatch{Order: &entity.OrderInfo{Date: uc.now(), Quantity: total}}
		err := uc.repo.UpdateIfVersion(ctx, id, m.Version, patch)
		if err == nil {
			uc.publish(ctx, m, entity.ChangeOrderSupplemented)
			res.DisplayType = inventory.DisplayAdditional
			res.Quantity = total
			return uc.succeed(res, uc.confirmed(m, patch), priceErr,
				fmt.Sprintf("Cantidad adicional registrada: %s, +%d uds. (total %d)", m.MaterialID, additional, total))
		}
		if !errors.Is(err, domain.ErrConflict) {
			return uc.fail(res, writeErr("adding supplemental quantity", err))
		}
		if attempt >= uc.opts.CASMaxAttempts {
			return uc.fail(res, domain.NewStorageError("adding supplemental quantity",
				fmt.Errorf("%w after %d attempts", domain.ErrConflict, attempt)))
		}
		uc.log.Debug().Str("id", id).Int("attempt", attempt).Msg("conflicto de versión, releyendo material")

		if m, err = uc.load(ctx, id); err != nil {
			return uc.fail(res, err)
		}
		if !m.IsOrdered() {
			return uc.fail(res, domain.ErrInvalidState)
		}
	}
}

// CancelOrder borra estado, fecha y cantidad del pedido en una sola escritura.
// Cancelar un material sin pedido devuelve InvalidState.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, id string) Result {
	start := time.Now()
	res := uc.cancelOrder(ctx, id)
	uc.finish(ctx, res, start)
	return res
}

func (uc *OrderUseCase) cancelOrder(ctx context.Context, id string) Result {
	res := Result{ID: id, Op: OpCancelOrder}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.WriteTimeout)
	defer cancel()

	m, err := uc.load(ctx, id)
	if err != nil {
		return uc.fail(res, err)
	}
	res.MaterialID = m.MaterialID
	if !m.IsOrdered() {
		return uc.fail(res, domain.ErrInvalidState)
	}

	patch := repository.MaterialPatch{ClearOrder: true}
	if err := uc.repo.Update(ctx, id, patch); err != nil {
		return uc.fail(res, writeErr("cancelling order", err))
	}
	uc.publish(ctx, m, entity.ChangeOrderCancelled)
	return uc.succeed(res, uc.confirmed(m, patch), nil,
		fmt.Sprintf("Pedido cancelado: %s", m.MaterialID))
}

// AddToReorderList marca el material para reposición (stock = -1, stockState = "reorder").
// Solo con stock >= 0; con stock negativo el material ya está en la lista.
// Es un marcador, no un ajuste de inventario: la siguiente entrada real de stock lo sobrescribe.
func (uc *OrderUseCase) AddToReorderList(ctx context.Context, id string) Result {
	start := time.Now()
	res := uc.addToReorderList(ctx, id)
	uc.finish(ctx, res, start)
	return res
}

func (uc *OrderUseCase) addToReorderList(ctx context.Context, id string) Result {
	res := Result{ID: id, Op: OpAddToReorderList}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.WriteTimeout)
	defer cancel()

	m, err := uc.load(ctx, id)
	if err != nil {
		return uc.fail(res, err)
	}
	res.MaterialID = m.MaterialID
	if m.Stock < 0 {
		return uc.fail(res, domain.ErrInvalidState)
	}

	stock, state := -1, entity.StockStateReorder
	patch := repository.MaterialPatch{Stock: &stock, StockState: &state}
	if err := uc.repo.Update(ctx, id, patch); err != nil {
		return uc.fail(res, writeErr("adding to reorder list", err))
	}
	uc.publish(ctx, m, entity.ChangeReorderListed)

	next := uc.confirmed(m, patch)
	res.DisplayType = inventory.DisplayNeeded
	res.Quantity = inventory.DefaultOrderQuantity(next)
	return uc.succeed(res, next, nil,
		fmt.Sprintf("Material añadido a la lista de reposición: %s", m.MaterialID))
}

// LookupByMaterialID resuelve el identificador humano (código QR) al registro.
func (uc *OrderUseCase) LookupByMaterialID(ctx context.Context, materialID string) (*entity.Material, error) {
	if materialID == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, uc.opts.WriteTimeout)
	defer cancel()

	m, err := uc.repo.GetByMaterialID(ctx, materialID)
	if err != nil {
		return nil, domain.NewStorageError("reading material", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// correctPrice escribe el precio si difiere del actual. Devuelve el material con
// el precio confirmado, o el original y un PriceCorrectionError si la escritura falló.
func (uc *OrderUseCase) correctPrice(ctx context.Context, m *entity.Material, price *decimal.Decimal) (*entity.Material, error) {
	if price == nil || (m.Price != nil && m.Price.Equal(*price)) {
		return m, nil
	}
	patch := repository.MaterialPatch{Price: price}
	if err := uc.repo.Update(ctx, m.ID, patch); err != nil {
		uc.log.Warn().Err(err).Str("material_id", m.MaterialID).Msg("corrección de precio fallida")
		return m, &domain.PriceCorrectionError{MaterialID: m.MaterialID, Err: err}
	}
	uc.publish(ctx, m, entity.ChangePriceCorrected)
	return uc.confirmed(m, patch), nil
}

func (uc *OrderUseCase) load(ctx context.Context, id string) (*entity.Material, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("reading material", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// confirmed estado del material tras una escritura aceptada por el almacén.
func (uc *OrderUseCase) confirmed(m *entity.Material, patch repository.MaterialPatch) *entity.Material {
	next := patch.Apply(m)
	next.Version++
	next.UpdatedAt = uc.now()
	return next
}

func (uc *OrderUseCase) publish(ctx context.Context, m *entity.Material, op string) {
	if uc.bus == nil {
		return
	}
	change := entity.MaterialChange{ID: m.ID, MaterialID: m.MaterialID, Op: op, At: uc.now()}
	if err := uc.bus.Publish(ctx, change); err != nil {
		uc.log.Warn().Err(err).Str("op", op).Str("material_id", m.MaterialID).Msg("no se pudo publicar el cambio")
	}
}

func (uc *OrderUseCase) succeed(res Result, m *entity.Material, priceErr error, msg string) Result {
	res.OK = true
	res.Material = m
	res.Message = msg
	if priceErr != nil {
		res.Err = priceErr
		res.ErrorCode = CodePriceCorrection
		res.Warning = "El precio no pudo actualizarse; corríjalo manualmente"
	}
	return res
}

func (uc *OrderUseCase) fail(res Result, err error) Result {
	res.OK = false
	res.Err = err
	res.ErrorCode = ErrorCode(err)
	res.Retryable = errors.Is(err, domain.ErrStorage)
	name := res.MaterialID
	if name == "" {
		name = res.ID
	}
	res.Message = fmt.Sprintf("%s falló para %s: %v", opLabel(res.Op), name, err)
	return res
}

// finish registra métricas, log y notificación de cada resultado.
func (uc *OrderUseCase) finish(ctx context.Context, res Result, start time.Time) {
	uc.recorder.ObserveOperation(res.Op, res.Outcome(), time.Since(start))

	ev := uc.log.Info()
	switch {
	case !res.OK:
		ev = uc.log.Error().Err(res.Err)
	case res.Warning != "":
		ev = uc.log.Warn().Err(res.Err)
	}
	ev.Str("op", res.Op).
		Str("id", res.ID).
		Str("material_id", res.MaterialID).
		Int("quantity", res.Quantity).
		Str("code", res.ErrorCode).
		Msg(res.Message)

	if err := uc.notifier.Notify(context.WithoutCancel(ctx), res); err != nil {
		uc.log.Warn().Err(err).Str("op", res.Op).Msg("notificación fallida")
	}
}

// writeErr clasifica un fallo de escritura: registro borrado entre lectura y
// escritura es NotFound; el resto, StorageError reintentable.
func writeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return domain.NewStorageError(op, err)
}

func opLabel(op string) string {
	switch op {
	case OpPlaceOrder:
		return "El pedido"
	case OpAddSupplemental:
		return "La cantidad adicional"
	case OpCancelOrder:
		return "La cancelación"
	case OpAddToReorderList:
		return "El alta en reposición"
	default:
		return op
	}
}
