package ordering_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
	"github.com/jhoicas/solar-inventario/internal/domain/repository"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

var errBackend = errors.New("backend caído")

// faultyRepo almacén en memoria con inyección de fallos por ID.
type faultyRepo struct {
	*memory.MaterialRepo

	mu          sync.Mutex
	writes      int
	failUpdate  map[string]error
	failPrice   error
	alwaysClash bool
	hang        bool
	beforeCAS   func() // se ejecuta una vez antes de la primera escritura condicionada
}

func newFaultyRepo() *faultyRepo {
	return &faultyRepo{MaterialRepo: memory.NewMaterialRepository(), failUpdate: map[string]error{}}
}

func (f *faultyRepo) inject(id string, p repository.MaterialPatch) (hang bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.hang {
		return true, nil
	}
	if p.Price != nil && f.failPrice != nil {
		return false, f.failPrice
	}
	if err, ok := f.failUpdate[id]; ok {
		return false, err
	}
	return false, nil
}

func (f *faultyRepo) Update(ctx context.Context, id string, p repository.MaterialPatch) error {
	hang, err := f.inject(id, p)
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return f.MaterialRepo.Update(ctx, id, p)
}

func (f *faultyRepo) UpdateIfVersion(ctx context.Context, id string, version int64, p repository.MaterialPatch) error {
	hang, err := f.inject(id, p)
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	clash := f.alwaysClash
	hook := f.beforeCAS
	f.beforeCAS = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if clash {
		return domain.ErrConflict
	}
	return f.MaterialRepo.UpdateIfVersion(ctx, id, version, p)
}

func (f *faultyRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []ordering.Result
}

func (n *recordingNotifier) Notify(_ context.Context, r ordering.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
	return nil
}

func (n *recordingNotifier) all() []ordering.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ordering.Result(nil), n.results...)
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *recordingRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[op+"/"+outcome]++
}

type fixture struct {
	repo     *faultyRepo
	bus      *memory.EventBus
	notifier *recordingNotifier
	recorder *recordingRecorder
	uc       *ordering.OrderUseCase
}

func newFixture(t *testing.T, opts ordering.Options) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFaultyRepo(),
		bus:      memory.NewEventBus(),
		notifier: &recordingNotifier{},
		recorder: &recordingRecorder{},
	}
	t.Cleanup(func() { _ = f.bus.Close() })
	f.uc = ordering.NewOrderUseCase(f.repo, f.bus, f.notifier, f.recorder, nil, opts)
	return f
}

func (f *fixture) seed(t *testing.T, m *entity.Material) *entity.Material {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), m))
	return m
}

func (f *fixture) get(t *testing.T, id string) *entity.Material {
	t.Helper()
	m, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func orderedAt(qty int) *entity.OrderInfo {
	return &entity.OrderInfo{Date: time.Date(2024, 5, 4, 8, 0, 0, 0, time.UTC), Quantity: qty}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestPlaceOrder_EscenarioA(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -2, OrderQuantity: 10})
	require.Equal(t, inventory.ClassNeeded, inventory.Classify(m))

	changes := make(chan entity.MaterialChange, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.bus.Subscribe(ctx, func(c entity.MaterialChange) { changes <- c }))

	before := time.Now().UTC()
	res := f.uc.PlaceOrder(context.Background(), m.ID, 10, nil)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 10, res.Quantity)
	assert.Equal(t, inventory.DisplayOrdered, res.DisplayType)
	assert.Equal(t, "MOD-420", res.MaterialID)
	assert.Contains(t, res.Message, "MOD-420")

	got := f.get(t, m.ID)
	require.NotNil(t, got.Order)
	assert.Equal(t, 10, got.Order.Quantity)
	assert.False(t, got.Order.Date.Before(before), "orderDate debe ser la hora de la escritura")
	assert.Equal(t, -2, got.Stock, "registrar un pedido no toca el stock")
	assert.Equal(t, inventory.ClassOrdered, inventory.Classify(got))

	select {
	case c := <-changes:
		assert.Equal(t, entity.ChangeOrderPlaced, c.Op)
		assert.Equal(t, m.ID, c.ID)
	case <-time.After(time.Second):
		t.Fatal("no se publicó el cambio")
	}

	notes := f.notifier.all()
	require.Len(t, notes, 1)
	assert.True(t, notes[0].OK)
	assert.Equal(t, 1, f.recorder.outcomes[ordering.OpPlaceOrder+"/ok"])
}

func TestPlaceOrder_CantidadInvalidaNoEscribe(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "KAB-6", Stock: -1})

	for _, q := range []int{0, -3} {
		res := f.uc.PlaceOrder(context.Background(), m.ID, q, nil)
		assert.False(t, res.OK)
		assert.ErrorIs(t, res.Err, domain.ErrInvalidQuantity)
		assert.Equal(t, ordering.CodeInvalidQuantity, res.ErrorCode)
		assert.False(t, res.Retryable)
	}
	assert.Zero(t, f.repo.writeCount(), "una cantidad inválida nunca llega al almacén")
	assert.EqualValues(t, 1, f.get(t, m.ID).Version)
	assert.Len(t, f.notifier.all(), 2, "cada fallo se notifica")
}

func TestPlaceOrder_ReemplazaCantidad(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "WR-10", Order: orderedAt(4)})

	res := f.uc.PlaceOrder(context.Background(), m.ID, 7, nil)
	require.True(t, res.OK)
	assert.Equal(t, 7, f.get(t, m.ID).Order.Quantity)
}

func TestPlaceOrder_NoExiste(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	res := f.uc.PlaceOrder(context.Background(), "nope", 3, nil)
	assert.False(t, res.OK)
	assert.Equal(t, ordering.CodeNotFound, res.ErrorCode)
	assert.Zero(t, f.repo.writeCount())
}

func TestPlaceOrder_FalloDeAlmacen(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MC4", Stock: -1})
	f.repo.failUpdate[m.ID] = errBackend

	res := f.uc.PlaceOrder(context.Background(), m.ID, 5, nil)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrStorage)
	assert.ErrorIs(t, res.Err, errBackend)
	assert.Equal(t, ordering.CodeStorage, res.ErrorCode)
	assert.True(t, res.Retryable)
	assert.Nil(t, res.Material, "sin escritura confirmada no hay estado nuevo")
	assert.Nil(t, f.get(t, m.ID).Order)
	assert.Equal(t, 1, f.recorder.outcomes[ordering.OpPlaceOrder+"/error"])
}

func TestPlaceOrder_Timeout(t *testing.T) {
	f := newFixture(t, ordering.Options{WriteTimeout: 50 * time.Millisecond})
	m := f.seed(t, &entity.Material{MaterialID: "INV-8K", Stock: -1})
	f.repo.hang = true

	start := time.Now()
	res := f.uc.PlaceOrder(context.Background(), m.ID, 1, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrStorage)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Len(t, f.notifier.all(), 1, "el timeout también se notifica")
}

// ──────────────────────────────────────────────────────────────────────────────
// Corrección de precio
// ──────────────────────────────────────────────────────────────────────────────

func TestPlaceOrder_CorrigePrecio(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -1, Price: dec("89.00")})

	res := f.uc.PlaceOrder(context.Background(), m.ID, 2, dec("92.50"))
	require.True(t, res.OK)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 2, f.repo.writeCount(), "precio y pedido son escrituras separadas")

	got := f.get(t, m.ID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("92.50")))
	assert.Equal(t, 2, got.Order.Quantity)
	require.NotNil(t, res.Material)
	assert.True(t, res.Material.Price.Equal(*got.Price))
	assert.Equal(t, got.Version, res.Material.Version)
}

func TestPlaceOrder_MismoPrecioNoEscribePrecio(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -1, Price: dec("89.00")})

	res := f.uc.PlaceOrder(context.Background(), m.ID, 2, dec("89"))
	require.True(t, res.OK)
	assert.Equal(t, 1, f.repo.writeCount())
}

func TestPlaceOrder_FalloDePrecioSeInformaAparte(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -1, Price: dec("89.00")})
	f.repo.failPrice = errBackend

	res := f.uc.PlaceOrder(context.Background(), m.ID, 3, dec("95.00"))
	assert.True(t, res.OK, "el pedido quedó registrado")
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, ordering.CodePriceCorrection, res.ErrorCode)
	assert.ErrorIs(t, res.Err, domain.ErrPriceCorrection)
	var pce *domain.PriceCorrectionError
	require.ErrorAs(t, res.Err, &pce)
	assert.Equal(t, "MOD-420", pce.MaterialID)
	assert.Equal(t, "warning", res.Outcome())

	got := f.get(t, m.ID)
	assert.Equal(t, 3, got.Order.Quantity)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("89.00")), "el precio sigue sin corregir")
}

func TestPlaceOrder_PrecioNegativo(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -1})
	res := f.uc.PlaceOrder(context.Background(), m.ID, 1, dec("-1"))
	assert.False(t, res.OK)
	assert.Equal(t, ordering.CodeInvalidInput, res.ErrorCode)
	assert.Zero(t, f.repo.writeCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// AddSupplemental
// ──────────────────────────────────────────────────────────────────────────────

func TestAddSupplemental_EscenarioC(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Order: orderedAt(20)})

	res := f.uc.AddSupplemental(context.Background(), m.ID, 5, nil)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 25, res.Quantity)
	assert.Equal(t, inventory.DisplayAdditional, res.DisplayType)

	got := f.get(t, m.ID)
	assert.Equal(t, 25, got.Order.Quantity)
	assert.True(t, got.Order.Date.After(orderedAt(0).Date), "la fecha del pedido se refresca")

	unordered := f.seed(t, &entity.Material{MaterialID: "KAB-6", Stock: -1})
	res = f.uc.AddSupplemental(context.Background(), unordered.ID, 5, nil)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidState)
	assert.Equal(t, ordering.CodeInvalidState, res.ErrorCode)

	after := f.get(t, unordered.ID)
	assert.Nil(t, after.Order)
	assert.EqualValues(t, 1, after.Version, "el registro queda intacto")
}

func TestAddSupplemental_CantidadInvalida(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Order: orderedAt(20)})
	res := f.uc.AddSupplemental(context.Background(), m.ID, 0, nil)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidQuantity)
	assert.Zero(t, f.repo.writeCount())
}

func TestAddSupplemental_ConcurrenteNoPierdeIncrementos(t *testing.T) {
	const callers = 20
	f := newFixture(t, ordering.Options{CASMaxAttempts: callers + 5})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Order: orderedAt(10)})

	var wg sync.WaitGroup
	results := make([]ordering.Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.uc.AddSupplemental(context.Background(), m.ID, 1, nil)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.True(t, r.OK, r.Message)
	}
	assert.Equal(t, 10+callers, f.get(t, m.ID).Order.Quantity, "ningún incremento se pierde")
}

func TestAddSupplemental_AgotaIntentos(t *testing.T) {
	f := newFixture(t, ordering.Options{CASMaxAttempts: 3})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Order: orderedAt(10)})
	f.repo.alwaysClash = true

	res := f.uc.AddSupplemental(context.Background(), m.ID, 2, nil)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrStorage)
	assert.ErrorIs(t, res.Err, domain.ErrConflict)
	assert.True(t, res.Retryable)
	assert.Equal(t, 3, f.repo.writeCount())
	assert.Equal(t, 10, f.get(t, m.ID).Order.Quantity)
}

func TestAddSupplemental_CanceladoDuranteReintento(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Order: orderedAt(10)})

	// Otro usuario cancela entre la lectura y la escritura condicionada.
	f.repo.beforeCAS = func() {
		require.NoError(t, f.repo.MaterialRepo.Update(context.Background(), m.ID, repository.MaterialPatch{ClearOrder: true}))
	}

	res := f.uc.AddSupplemental(context.Background(), m.ID, 1, nil)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidState, "tras releer, el material ya no tiene pedido")
	assert.Nil(t, f.get(t, m.ID).Order)
}

// ──────────────────────────────────────────────────────────────────────────────
// CancelOrder / AddToReorderList / Lookup
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelOrder_BorraLosTresCampos(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "MOD-420", Stock: -2, Order: orderedAt(10)})

	res := f.uc.CancelOrder(context.Background(), m.ID)
	require.True(t, res.OK)
	got := f.get(t, m.ID)
	assert.Nil(t, got.Order)
	assert.Empty(t, got.OrderStatus())
	assert.Equal(t, inventory.ClassNeeded, inventory.Classify(got))
	assert.Equal(t, 1, f.repo.writeCount(), "una sola escritura")

	res = f.uc.CancelOrder(context.Background(), m.ID)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidState)
}

func TestAddToReorderList(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "KAB-6", Stock: 40, ReorderThreshold: 5, OrderQuantity: 100})

	res := f.uc.AddToReorderList(context.Background(), m.ID)
	require.True(t, res.OK)
	assert.Equal(t, 100, res.Quantity)

	got := f.get(t, m.ID)
	assert.Equal(t, -1, got.Stock)
	assert.Equal(t, entity.StockStateReorder, got.StockState)
	assert.Equal(t, inventory.ClassNeeded, inventory.Classify(got))

	res = f.uc.AddToReorderList(context.Background(), m.ID)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidState, "con stock negativo ya está en la lista")
}

func TestLookupByMaterialID(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	m := f.seed(t, &entity.Material{MaterialID: "QR-0042"})

	got, err := f.uc.LookupByMaterialID(context.Background(), "QR-0042")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.uc.LookupByMaterialID(context.Background(), "QR-9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.LookupByMaterialID(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// BulkPlaceOrders
// ──────────────────────────────────────────────────────────────────────────────

func TestBulkPlaceOrders_EscenarioD(t *testing.T) {
	f := newFixture(t, ordering.Options{BulkConcurrency: 3})
	a := f.seed(t, &entity.Material{MaterialID: "A", Stock: -1})
	b := f.seed(t, &entity.Material{MaterialID: "B", Stock: -1})
	c := f.seed(t, &entity.Material{MaterialID: "C", Stock: -1})
	f.repo.failUpdate[b.ID] = errBackend

	results := f.uc.BulkPlaceOrders(context.Background(), []ordering.BulkItem{
		{ID: a.ID, Quantity: 1},
		{ID: b.ID, Quantity: 2},
		{ID: c.ID, Quantity: 3},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, ordering.CodeStorage, results[1].ErrorCode)
	assert.True(t, results[2].OK)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{results[0].ID, results[1].ID, results[2].ID}, "un resultado por elemento, en orden")

	assert.Equal(t, 1, f.get(t, a.ID).Order.Quantity)
	assert.Nil(t, f.get(t, b.ID).Order)
	assert.Equal(t, 3, f.get(t, c.ID).Order.Quantity, "nada se revierte")
	assert.Len(t, f.notifier.all(), 3)
}

func TestBulkPlaceOrders_Vacio(t *testing.T) {
	f := newFixture(t, ordering.Options{})
	assert.Empty(t, f.uc.BulkPlaceOrders(context.Background(), nil))
}
