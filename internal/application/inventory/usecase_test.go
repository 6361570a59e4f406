package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
	"github.com/jhoicas/tienda-api/internal/infrastructure/memory"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger(t *testing.T) (*inventory.LedgerUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore(5 * time.Second)
	store.PutProduct(entity.Product{ID: "p1", SKU: "CAM-001", Name: "Camisa", Active: true, Stock: dec("10"), Price: dec("50")})
	store.PutProduct(entity.Product{ID: "p2", SKU: "PAN-001", Name: "Pantalón", Active: true, Stock: dec("3"), Price: dec("80")})
	store.PutProduct(entity.Product{ID: "off", SKU: "OFF-001", Name: "Descontinuado", Active: false, Stock: dec("5")})
	store.PutVariant(entity.Variant{ID: "v1", ProductID: "p1", SKU: "CAM-001-M", Name: "Talla M", Active: true, Stock: dec("4")})
	store.PutVariant(entity.Variant{ID: "v2", ProductID: "p2", SKU: "PAN-001-32", Name: "Talla 32", Active: true, Stock: dec("2")})
	store.PutVariant(entity.Variant{ID: "v-off", ProductID: "p1", SKU: "CAM-001-XS", Name: "Talla XS", Active: false, Stock: dec("1")})

	uc := inventory.NewLedgerUseCase(memory.NewTxRunner(store), store.Movements(), nil).
		WithClock(func() time.Time { return fixedNow })
	return uc, store
}

func movement(productID string, kind entity.MovementKind, qty string) inventory.MovementInputDTO {
	return inventory.MovementInputDTO{
		ProductID: productID,
		Kind:      kind,
		Quantity:  dec(qty),
		Reason:    "conteo de tienda",
		ActorID:   "user-1",
	}
}

func stockOf(t *testing.T, store *memory.Store, target entity.StockTarget) decimal.Decimal {
	t.Helper()
	s, err := store.Stock(target)
	require.NoError(t, err)
	return s
}

func allEntries(t *testing.T, store *memory.Store) []*entity.LedgerEntry {
	t.Helper()
	entries, err := store.Movements().List(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	return entries
}

// ─── RecordMovement ──────────────────────────────────────────────────────────

func TestRecordMovement_SalidaMayorAlStockNoCambiaNada(t *testing.T) {
	uc, store := newLedger(t)

	_, err := uc.RecordMovement(context.Background(), movement("p1", entity.MovementOutflow, "12"))

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
	assert.Empty(t, allEntries(t, store))
}

func TestRecordMovement_AjusteEsAbsoluto(t *testing.T) {
	uc, store := newLedger(t)

	e, err := uc.RecordMovement(context.Background(), movement("p1", entity.MovementAdjustment, "7"))
	require.NoError(t, err)

	assert.True(t, e.StockBefore.Equal(dec("10")))
	assert.True(t, e.StockAfter.Equal(dec("7")))
	assert.True(t, e.SignedQuantity.Equal(dec("-3")))
	assert.True(t, e.RequestedQuantity.Equal(dec("7")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("7")))
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.NotEmpty(t, e.ID)
}

func TestRecordMovement_EntradaYSalidaPersistenAsiento(t *testing.T) {
	uc, store := newLedger(t)
	ctx := context.Background()

	in, err := uc.RecordMovement(ctx, movement("p1", entity.MovementInflow, "5"))
	require.NoError(t, err)
	out, err := uc.RecordMovement(ctx, movement("p1", entity.MovementOutflow, "15"))
	require.NoError(t, err)

	assert.True(t, in.StockAfter.Equal(dec("15")))
	assert.True(t, out.StockBefore.Equal(in.StockAfter))
	assert.True(t, out.StockAfter.IsZero())
	assert.True(t, out.SignedQuantity.Equal(dec("-15")))

	got, err := uc.GetMovement(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
	assert.Len(t, allEntries(t, store), 2)
}

func TestRecordMovement_Variante(t *testing.T) {
	uc, store := newLedger(t)
	in := movement("p1", entity.MovementReserve, "3")
	in.VariantID = "v1"

	e, err := uc.RecordMovement(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, entity.StockTarget{ProductID: "p1", VariantID: "v1"}, e.Target)
	assert.True(t, stockOf(t, store, e.Target).Equal(dec("1")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")), "el stock del producto no se toca")
}

func TestRecordMovement_Rechazos(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*inventory.MovementInputDTO)
		want   error
	}{
		{"producto inexistente", func(in *inventory.MovementInputDTO) { in.ProductID = "nope" }, domain.ErrNotFound},
		{"producto inactivo", func(in *inventory.MovementInputDTO) { in.ProductID = "off" }, domain.ErrTargetInactive},
		{"variante de otro producto", func(in *inventory.MovementInputDTO) { in.VariantID = "v2" }, domain.ErrTargetMismatch},
		{"variante inactiva", func(in *inventory.MovementInputDTO) { in.VariantID = "v-off" }, domain.ErrTargetInactive},
		{"variante inexistente", func(in *inventory.MovementInputDTO) { in.VariantID = "v-x" }, domain.ErrNotFound},
		{"cantidad cero", func(in *inventory.MovementInputDTO) { in.Quantity = decimal.Zero }, domain.ErrInvalidQuantity},
		{"cantidad negativa", func(in *inventory.MovementInputDTO) { in.Quantity = dec("-2") }, domain.ErrInvalidQuantity},
		{"ajuste negativo", func(in *inventory.MovementInputDTO) {
			in.Kind = entity.MovementAdjustment
			in.Quantity = dec("-1")
		}, domain.ErrInvalidQuantity},
		{"tipo inválido", func(in *inventory.MovementInputDTO) { in.Kind = 0 }, domain.ErrInvalidInput},
		{"sin motivo", func(in *inventory.MovementInputDTO) { in.Reason = "   " }, domain.ErrInvalidInput},
		{"motivo largo", func(in *inventory.MovementInputDTO) { in.Reason = string(make([]byte, 501)) }, domain.ErrInvalidInput},
		{"referencia larga", func(in *inventory.MovementInputDTO) { in.Reference = string(make([]byte, 101)) }, domain.ErrInvalidInput},
		{"sin actor", func(in *inventory.MovementInputDTO) { in.ActorID = "" }, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store := newLedger(t)
			in := movement("p1", entity.MovementOutflow, "1")
			tt.mutate(&in)

			_, err := uc.RecordMovement(context.Background(), in)

			assert.ErrorIs(t, err, tt.want)
			assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
			assert.Empty(t, allEntries(t, store))
		})
	}
}

func TestRecordMovement_ConcurrenteMismoTarget(t *testing.T) {
	uc, store := newLedger(t)
	store.PutProduct(entity.Product{ID: "hot", SKU: "HOT", Name: "Popular", Active: true, Stock: dec("1000")})

	const n = 60
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind, qty := entity.MovementOutflow, "12"
			if i%3 == 0 {
				kind, qty = entity.MovementInflow, "5"
			}
			_, err := uc.RecordMovement(context.Background(), movement("hot", kind, qty))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 20 entradas de 5 y 40 salidas de 12
	want := dec("1000").Add(dec("100")).Sub(dec("480"))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "hot"}).Equal(want))

	// el ledger queda encadenado: cada stock_before es el stock_after del asiento anterior
	entries := allEntries(t, store)
	require.Len(t, entries, n)
	for i, e := range entries {
		assert.True(t, e.StockAfter.Equal(e.StockBefore.Add(e.SignedQuantity)))
		assert.False(t, e.StockAfter.IsNegative())
		if i+1 < len(entries) {
			assert.True(t, e.StockBefore.Equal(entries[i+1].StockAfter), "asiento %d", i)
		}
	}
	assert.True(t, entries[n-1].StockBefore.Equal(dec("1000")))
	assert.True(t, entries[0].StockAfter.Equal(want))
}

func TestListByTargetYActor(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()

	_, err := uc.RecordMovement(ctx, movement("p1", entity.MovementInflow, "1"))
	require.NoError(t, err)
	other := movement("p2", entity.MovementInflow, "1")
	other.ActorID = "user-2"
	_, err = uc.RecordMovement(ctx, other)
	require.NoError(t, err)

	byTarget, err := uc.ListByTarget(ctx, entity.StockTarget{ProductID: "p2"}, nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	assert.Equal(t, "user-2", byTarget[0].ActorID)

	byActor, err := uc.ListByActor(ctx, "user-1", nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, "p1", byActor[0].Target.ProductID)

	_, err = uc.ListByActor(ctx, "", nil, nil, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── ReserveCart / ReleaseCart ───────────────────────────────────────────────

func cartWith(items ...entity.CartLineItem) *entity.Cart {
	c := entity.NewCart("sess-1", fixedNow)
	c.Items = items
	return c
}

func TestReserveCart_ReservaYLibera(t *testing.T) {
	uc, store := newLedger(t)
	ctx := context.Background()
	cart := cartWith(
		entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 2},
		entity.CartLineItem{ItemID: "p1:v1", ProductID: "p1", VariantID: "v1", Quantity: 4},
	)

	reserved, err := uc.ReserveCart(ctx, cart, "user-1")
	require.NoError(t, err)
	require.Len(t, reserved, 2)
	assert.Equal(t, "cart:sess-1", reserved[0].Reference)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("8")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1", VariantID: "v1"}).IsZero())

	released, err := uc.ReleaseCart(ctx, cart, "user-1")
	require.NoError(t, err)
	require.Len(t, released, 2)
	assert.Equal(t, entity.MovementRelease, released[1].Kind)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1", VariantID: "v1"}).Equal(dec("4")))
}

func TestReserveCart_FallaRevierteLoReservado(t *testing.T) {
	uc, store := newLedger(t)
	cart := cartWith(
		entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 2},
		entity.CartLineItem{ItemID: "p2", ProductID: "p2", Quantity: 5},
	)

	_, err := uc.ReserveCart(context.Background(), cart, "user-1")

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p2"}).Equal(dec("3")))

	entries := allEntries(t, store)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.MovementRelease, entries[0].Kind)
	assert.Equal(t, entity.MovementReserve, entries[1].Kind)

	pending, err := uc.PendingReservation(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, pending, "la reversión deja el carrito sin reserva pendiente")
}

func TestReserveCart_CarritoVacio(t *testing.T) {
	uc, _ := newLedger(t)
	_, err := uc.ReserveCart(context.Background(), cartWith(), "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReleaseCart_SinReservaNoMueveStock(t *testing.T) {
	uc, store := newLedger(t)
	cart := cartWith(entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 5})

	for i := 0; i < 3; i++ {
		released, err := uc.ReleaseCart(context.Background(), cart, "user-1")
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Empty(t, released)
	}

	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
	assert.Empty(t, allEntries(t, store))
}

func TestReserveCart_DobleReservaFalla(t *testing.T) {
	uc, store := newLedger(t)
	ctx := context.Background()
	cart := cartWith(entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 5})

	_, err := uc.ReserveCart(ctx, cart, "user-1")
	require.NoError(t, err)

	_, err = uc.ReserveCart(ctx, cart, "user-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("5")))

	_, err = uc.ReleaseCart(ctx, cart, "user-1")
	require.NoError(t, err)
	_, err = uc.ReserveCart(ctx, cart, "user-1")
	require.NoError(t, err, "tras liberar se puede volver a reservar")
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("5")))
}

func TestReleaseCart_LiberaLoReservadoAunqueCambieElCarrito(t *testing.T) {
	uc, store := newLedger(t)
	ctx := context.Background()
	cart := cartWith(entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 2})

	_, err := uc.ReserveCart(ctx, cart, "user-1")
	require.NoError(t, err)

	cart.Items = []entity.CartLineItem{
		{ItemID: "p1", ProductID: "p1", Quantity: 5},
		{ItemID: "p2", ProductID: "p2", Quantity: 1},
	}
	released, err := uc.ReleaseCart(ctx, cart, "user-1")
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.True(t, released[0].RequestedQuantity.Equal(dec("2")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p2"}).Equal(dec("3")))

	cart.Items = nil
	_, err = uc.ReleaseCart(ctx, cart, "user-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReleaseCart_FalloParcialYReintento(t *testing.T) {
	uc, store := newLedger(t)
	ctx := context.Background()
	cart := cartWith(
		entity.CartLineItem{ItemID: "p1", ProductID: "p1", Quantity: 2},
		entity.CartLineItem{ItemID: "p2", ProductID: "p2", Quantity: 1},
	)
	_, err := uc.ReserveCart(ctx, cart, "user-1")
	require.NoError(t, err)

	p2 := entity.Product{ID: "p2", SKU: "PAN-001", Name: "Pantalón", Price: dec("80")}
	p2.Stock = stockOf(t, store, entity.StockTarget{ProductID: "p2"})
	store.PutProduct(p2)

	released, err := uc.ReleaseCart(ctx, cart, "user-1")
	assert.ErrorIs(t, err, domain.ErrTargetInactive)
	require.Len(t, released, 1)
	assert.Equal(t, "p1", released[0].Target.ProductID)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")))

	pending, err := uc.PendingReservation(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p2", pending[0].Target.ProductID)
	assert.True(t, pending[0].Quantity.Equal(dec("1")))

	p2.Active = true
	store.PutProduct(p2)
	released, err = uc.ReleaseCart(ctx, cart, "user-1")
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, "p2", released[0].Target.ProductID)
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p1"}).Equal(dec("10")), "el reintento no vuelve a liberar p1")
	assert.True(t, stockOf(t, store, entity.StockTarget{ProductID: "p2"}).Equal(dec("3")))
}
