package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"distribution/internal/adapters/out/locker"
	"distribution/internal/adapters/out/memory"
	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type stockUoWFactory struct {
	factory *memory.UnitOfWorkFactory
}

func (f stockUoWFactory) Create() commands.StockUoW {
	return f.factory.Create()
}

type uowFactory struct {
	factory *memory.UnitOfWorkFactory
}

func (f uowFactory) Create() commands.UoW {
	return f.factory.Create()
}

type deliveryUoWFactory struct {
	factory *memory.UnitOfWorkFactory
}

func (f deliveryUoWFactory) Create() commands.DeliveryUoW {
	return f.factory.Create()
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...ports.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) countOf(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// world is an in-memory deployment: one client, one perishable product and two
// warehouses, "north" about 5 km and "south" about 50 km from the client.
type world struct {
	store     *memory.Store
	factory   *memory.UnitOfWorkFactory
	locker    *locker.MemoryLocker
	events    *recordingPublisher
	clientID  kernel.UUID
	productID kernel.UUID
	north     kernel.UUID
	south     kernel.UUID
}

func newWorld(t *testing.T) *world {
	t.Helper()

	store := memory.NewStore()
	w := &world{
		store:     store,
		factory:   memory.NewUnitOfWorkFactory(store),
		locker:    locker.NewMemoryLocker(),
		events:    &recordingPublisher{},
		clientID:  kernel.NewUUID(),
		productID: kernel.NewUUID(),
		north:     kernel.NewUUID(),
		south:     kernel.NewUUID(),
	}

	clientLoc := kernel.MustNewLocation(0, 0)
	northLoc := kernel.MustNewLocation(0.045, 0)
	southLoc := kernel.MustNewLocation(0.45, 0)

	require.NoError(t, store.PutClient(catalog.Client{
		ID:          w.clientID,
		Name:        "Corner Shop",
		Location:    &clientLoc,
		CreditLimit: decimal.NewFromInt(1000),
		PricingTier: "retail",
	}))
	require.NoError(t, store.PutProduct(catalog.Product{
		ID:         w.productID,
		SKU:        "MILK-1L",
		Name:       "Milk 1L",
		Unit:       "pcs",
		BasePrice:  decimal.NewFromInt(2),
		TierPrices: map[string]decimal.Decimal{"retail": decimal.RequireFromString("2.50")},
		Perishable: true,
	}))
	require.NoError(t, store.PutWarehouse(catalog.Warehouse{ID: w.north, Name: "North", Location: &northLoc, Active: true}))
	require.NoError(t, store.PutWarehouse(catalog.Warehouse{ID: w.south, Name: "South", Location: &southLoc, Active: true}))
	return w
}

func (w *world) opts() []commands.HandlerOption {
	return []commands.HandlerOption{commands.WithClock(func() time.Time { return baseTime })}
}

func (w *world) stock() stockUoWFactory {
	return stockUoWFactory{factory: w.factory}
}

func (w *world) uow() uowFactory {
	return uowFactory{factory: w.factory}
}

func (w *world) receive(t *testing.T, warehouseID kernel.UUID, batch string, quantity int, expiresInDays int) *inventory.Lot {
	t.Helper()

	var expiry *time.Time
	if expiresInDays > 0 {
		e := baseTime.AddDate(0, 0, expiresInDays)
		expiry = &e
	}
	cmd, err := commands.NewReceiveStockCommand(w.productID, warehouseID, "", batch, quantity, expiry, nil,
		commands.MovementInfo{ActorID: "tester"})
	require.NoError(t, err)

	lot, err := commands.NewReceiveStockCommandHandler(w.stock(), w.locker, w.events, w.opts()...).Handle(t.Context(), cmd)
	require.NoError(t, err)
	return lot
}

func (w *world) createOrder(t *testing.T, warehouseID kernel.UUID, quantity int) (*order.Order, error) {
	t.Helper()

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), w.clientID, warehouseID, 1,
		baseTime.AddDate(0, 0, 1), []commands.OrderLineInput{{ProductID: w.productID, Quantity: quantity}}, "tester")
	require.NoError(t, err)

	return commands.NewCreateOrderCommandHandler(w.uow(), w.locker, w.events, w.opts()...).Handle(t.Context(), cmd)
}

func (w *world) transition(t *testing.T, orderID kernel.UUID, targets ...order.Status) *order.Order {
	t.Helper()

	handler := commands.NewTransitionOrderCommandHandler(w.uow(), w.locker, w.events, w.opts()...)
	var o *order.Order
	for _, target := range targets {
		cmd, err := commands.NewTransitionOrderCommand(orderID, target, "tester")
		require.NoError(t, err)
		o, err = handler.Handle(t.Context(), cmd)
		require.NoError(t, err)
	}
	return o
}

func (w *world) lot(t *testing.T, id kernel.UUID) *inventory.Lot {
	t.Helper()
	lot, err := w.factory.Create().LotRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return lot
}

func (w *world) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := w.factory.Create().OrderRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}
