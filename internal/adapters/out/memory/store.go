// Package memory is an in-process storage backend. A Store holds committed
// state; a UnitOfWork stages its writes and applies them atomically on Commit.
// Isolation between concurrent units of work comes from the key locker, as with
// the postgres backend, so the store only guards its maps.
package memory

import (
	"slices"
	"sync"
	"time"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
)

type Store struct {
	mu sync.RWMutex

	lots       map[kernel.UUID]*inventory.Lot
	lotsByKey  map[string]kernel.UUID
	journal    []*inventory.Transaction
	orders     map[kernel.UUID]*order.Order
	plans      map[kernel.UUID]*distribution.Plan
	deliveries map[kernel.UUID]*delivery.Delivery
	clients    map[kernel.UUID]catalog.Client
	products   map[kernel.UUID]catalog.Product
	warehouses map[kernel.UUID]catalog.Warehouse
}

func NewStore() *Store {
	return &Store{
		lots:       make(map[kernel.UUID]*inventory.Lot),
		lotsByKey:  make(map[string]kernel.UUID),
		orders:     make(map[kernel.UUID]*order.Order),
		plans:      make(map[kernel.UUID]*distribution.Plan),
		deliveries: make(map[kernel.UUID]*delivery.Delivery),
		clients:    make(map[kernel.UUID]catalog.Client),
		products:   make(map[kernel.UUID]catalog.Product),
		warehouses: make(map[kernel.UUID]catalog.Warehouse),
	}
}

// PutClient seeds or replaces a client record.
func (s *Store) PutClient(c catalog.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	return nil
}

func (s *Store) PutProduct(p catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *Store) PutWarehouse(w catalog.Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = w
	return nil
}

// changes is the write set of an open unit of work.
type changes struct {
	lots       map[kernel.UUID]*inventory.Lot
	journal    []*inventory.Transaction
	orders     map[kernel.UUID]*order.Order
	plans      map[kernel.UUID]*distribution.Plan
	deliveries map[kernel.UUID]*delivery.Delivery
}

func newChanges() *changes {
	return &changes{
		lots:       make(map[kernel.UUID]*inventory.Lot),
		orders:     make(map[kernel.UUID]*order.Order),
		plans:      make(map[kernel.UUID]*distribution.Plan),
		deliveries: make(map[kernel.UUID]*delivery.Delivery),
	}
}

func (s *Store) apply(c *changes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, lot := range c.lots {
		s.lots[id] = lot
		s.lotsByKey[lot.Key().LockKey()] = id
	}
	s.journal = append(s.journal, c.journal...)
	for id, o := range c.orders {
		s.orders[id] = o
	}
	for id, p := range c.plans {
		s.plans[id] = p
	}
	for id, d := range c.deliveries {
		s.deliveries[id] = d
	}
}

// Snapshots are cloned on every read and write so that callers never share
// mutable aggregates with the store.

func cloneLot(l *inventory.Lot) *inventory.Lot {
	c, err := inventory.RestoreLot(l.ID(), l.Key(), l.Quantity(), l.Reserved(),
		l.ExpiryDate(), l.CostPrice(), l.ReceivedAt(), l.LastMovementAt())
	if err != nil {
		panic(err)
	}
	return c
}

func cloneOrder(o *order.Order) *order.Order {
	lines := make([]*order.Line, 0, len(o.Lines()))
	for _, l := range o.Lines() {
		line, err := order.RestoreLine(l.Number(), l.ProductID(), l.Quantity(), l.UnitPrice(), l.Reservations())
		if err != nil {
			panic(err)
		}
		lines = append(lines, line)
	}

	c, err := order.RestoreOrder(o.ID(), o.ClientID(), o.WarehouseID(), o.Priority(), o.RequiredDate(),
		o.Status(), lines, o.CreatedAt(), o.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return c
}

func clonePlan(p *distribution.Plan) *distribution.Plan {
	allocations := make([]*distribution.Allocation, 0, len(p.Allocations()))
	for _, a := range p.Allocations() {
		var lotID *kernel.UUID
		if a.LotID() != nil {
			id := *a.LotID()
			lotID = &id
		}
		c, err := distribution.RestoreAllocation(a.ID(), a.OrderID(), a.LineNumber(), a.ProductID(),
			a.WarehouseID(), lotID, a.RequestedQuantity(), a.AllocatedQuantity(), a.PriorityScore(),
			a.Status(), a.Reservations())
		if err != nil {
			panic(err)
		}
		allocations = append(allocations, c)
	}

	var executedAt *time.Time
	if p.ExecutedAt() != nil {
		t := *p.ExecutedAt()
		executedAt = &t
	}
	c, err := distribution.RestorePlan(p.ID(), p.Status(), p.WarehouseScope(), p.OrderCount(),
		p.TotalRequested(), allocations, p.CreatedAt(), executedAt)
	if err != nil {
		panic(err)
	}
	return c
}

func cloneDelivery(d *delivery.Delivery) *delivery.Delivery {
	c, err := delivery.RestoreDelivery(d.ID(), d.WarehouseID(), d.ScheduledDate(), d.Status(),
		slices.Clone(d.Stops()), d.TotalDistanceKm(), d.EstimatedMinutes())
	if err != nil {
		panic(err)
	}
	return c
}
