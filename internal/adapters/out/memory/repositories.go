package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"
)

var ErrDuplicateKey = errors.New("duplicate key")

type lotRepository struct {
	uow *UnitOfWork
}

func (r *lotRepository) Add(_ context.Context, lot *inventory.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	if existing, ok := r.byKey(lot.Key()); ok {
		return fmt.Errorf("%w: lot %s already holds %s", ErrDuplicateKey, existing.ID(), lot.Key())
	}
	if _, ok := r.byID(lot.ID()); ok {
		return fmt.Errorf("%w: lot %s", ErrDuplicateKey, lot.ID())
	}

	snapshot := cloneLot(lot)
	r.uow.write(func(c *changes) { c.lots[lot.ID()] = snapshot })
	return nil
}

func (r *lotRepository) Update(_ context.Context, lot *inventory.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(lot.ID()); !ok {
		return errs.NewObjectNotFoundError("lot", lot.ID().String())
	}

	snapshot := cloneLot(lot)
	r.uow.write(func(c *changes) { c.lots[lot.ID()] = snapshot })
	return nil
}

func (r *lotRepository) Get(_ context.Context, id kernel.UUID) (*inventory.Lot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	lot, ok := r.byID(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("lot", id.String())
	}
	return cloneLot(lot), nil
}

func (r *lotRepository) GetByKey(_ context.Context, key inventory.LotKey) (*inventory.Lot, error) {
	lot, ok := r.byKey(key)
	if !ok {
		return nil, errs.NewObjectNotFoundError("lot", key.String())
	}
	return cloneLot(lot), nil
}

func (r *lotRepository) Find(_ context.Context, filter ports.LotFilter) ([]*inventory.Lot, error) {
	s := r.uow.store
	s.mu.RLock()
	merged := make(map[kernel.UUID]*inventory.Lot, len(s.lots))
	for id, lot := range s.lots {
		merged[id] = lot
	}
	s.mu.RUnlock()
	if r.uow.tx != nil {
		for id, lot := range r.uow.tx.lots {
			merged[id] = lot
		}
	}

	result := make([]*inventory.Lot, 0)
	for _, lot := range merged {
		if matches(lot, filter) {
			result = append(result, cloneLot(lot))
		}
	}
	slices.SortFunc(result, func(a, b *inventory.Lot) int {
		if c := a.ReceivedAt().Compare(b.ReceivedAt()); c != 0 {
			return c
		}
		return a.ID().Compare(b.ID())
	})
	return result, nil
}

func matches(lot *inventory.Lot, filter ports.LotFilter) bool {
	if filter.ProductID != nil && !lot.ProductID().IsEqual(*filter.ProductID) {
		return false
	}
	if filter.WarehouseID != nil && !lot.WarehouseID().IsEqual(*filter.WarehouseID) {
		return false
	}
	if len(filter.WarehouseIDs) > 0 && !slices.ContainsFunc(filter.WarehouseIDs, lot.WarehouseID().IsEqual) {
		return false
	}
	if filter.OnlyInStock && lot.Quantity() <= 0 {
		return false
	}
	return true
}

func (r *lotRepository) byID(id kernel.UUID) (*inventory.Lot, bool) {
	if r.uow.tx != nil {
		if lot, ok := r.uow.tx.lots[id]; ok {
			return lot, true
		}
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[id]
	return lot, ok
}

func (r *lotRepository) byKey(key inventory.LotKey) (*inventory.Lot, bool) {
	lockKey := key.LockKey()
	if r.uow.tx != nil {
		for _, lot := range r.uow.tx.lots {
			if lot.Key().LockKey() == lockKey {
				return lot, true
			}
		}
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lotsByKey[lockKey]
	if !ok {
		return nil, false
	}
	return s.lots[id], true
}

type transactionLogRepository struct {
	uow *UnitOfWork
}

func (r *transactionLogRepository) Append(_ context.Context, entry *inventory.Transaction) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	r.uow.write(func(c *changes) { c.journal = append(c.journal, entry) })
	return nil
}

func (r *transactionLogRepository) ListByLot(_ context.Context, lotID kernel.UUID) ([]*inventory.Transaction, error) {
	entries := r.filter(func(e *inventory.Transaction) bool { return e.LotID().IsEqual(lotID) })
	slices.SortStableFunc(entries, func(a, b *inventory.Transaction) int {
		return a.OccurredAt().Compare(b.OccurredAt())
	})
	return entries, nil
}

func (r *transactionLogRepository) FindByIdempotencyKey(
	_ context.Context,
	key string,
) ([]*inventory.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	return r.filter(func(e *inventory.Transaction) bool { return e.IdempotencyKey() == key }), nil
}

func (r *transactionLogRepository) filter(keep func(*inventory.Transaction) bool) []*inventory.Transaction {
	s := r.uow.store
	s.mu.RLock()
	all := slices.Clone(s.journal)
	s.mu.RUnlock()
	if r.uow.tx != nil {
		all = append(all, r.uow.tx.journal...)
	}

	result := make([]*inventory.Transaction, 0)
	for _, e := range all {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(aggregate.ID()); ok {
		return fmt.Errorf("%w: order %s", ErrDuplicateKey, aggregate.ID())
	}

	snapshot := cloneOrder(aggregate)
	r.uow.write(func(c *changes) { c.orders[aggregate.ID()] = snapshot })
	return nil
}

func (r *orderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(aggregate.ID()); !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	snapshot := cloneOrder(aggregate)
	r.uow.write(func(c *changes) { c.orders[aggregate.ID()] = snapshot })
	return nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	o, ok := r.byID(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o), nil
}

func (r *orderRepository) ListByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *orderRepository) byID(id kernel.UUID) (*order.Order, bool) {
	if r.uow.tx != nil {
		if o, ok := r.uow.tx.orders[id]; ok {
			return o, true
		}
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

type planRepository struct {
	uow *UnitOfWork
}

func (r *planRepository) Add(_ context.Context, plan *distribution.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(plan.ID()); ok {
		return fmt.Errorf("%w: plan %s", ErrDuplicateKey, plan.ID())
	}

	snapshot := clonePlan(plan)
	r.uow.write(func(c *changes) { c.plans[plan.ID()] = snapshot })
	return nil
}

func (r *planRepository) Update(_ context.Context, plan *distribution.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(plan.ID()); !ok {
		return errs.NewObjectNotFoundError("plan", plan.ID().String())
	}

	snapshot := clonePlan(plan)
	r.uow.write(func(c *changes) { c.plans[plan.ID()] = snapshot })
	return nil
}

func (r *planRepository) Get(_ context.Context, id kernel.UUID) (*distribution.Plan, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	p, ok := r.byID(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("plan", id.String())
	}
	return clonePlan(p), nil
}

func (r *planRepository) ListByOrder(_ context.Context, orderID kernel.UUID) ([]*distribution.Plan, error) {
	s := r.uow.store
	s.mu.RLock()
	merged := make(map[kernel.UUID]*distribution.Plan, len(s.plans))
	for id, p := range s.plans {
		merged[id] = p
	}
	s.mu.RUnlock()
	if r.uow.tx != nil {
		for id, p := range r.uow.tx.plans {
			merged[id] = p
		}
	}

	result := make([]*distribution.Plan, 0)
	for _, p := range merged {
		if len(p.AllocationsForOrder(orderID)) > 0 {
			result = append(result, clonePlan(p))
		}
	}
	slices.SortFunc(result, func(a, b *distribution.Plan) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return a.ID().Compare(b.ID())
	})
	return result, nil
}

func (r *planRepository) byID(id kernel.UUID) (*distribution.Plan, bool) {
	if r.uow.tx != nil {
		if p, ok := r.uow.tx.plans[id]; ok {
			return p, true
		}
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	return p, ok
}

type deliveryRepository struct {
	uow *UnitOfWork
}

func (r *deliveryRepository) Add(_ context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(d.ID()); ok {
		return fmt.Errorf("%w: delivery %s", ErrDuplicateKey, d.ID())
	}

	snapshot := cloneDelivery(d)
	r.uow.write(func(c *changes) { c.deliveries[d.ID()] = snapshot })
	return nil
}

func (r *deliveryRepository) Update(_ context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, ok := r.byID(d.ID()); !ok {
		return errs.NewObjectNotFoundError("delivery", d.ID().String())
	}

	snapshot := cloneDelivery(d)
	r.uow.write(func(c *changes) { c.deliveries[d.ID()] = snapshot })
	return nil
}

func (r *deliveryRepository) Get(_ context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	d, ok := r.byID(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("delivery", id.String())
	}
	return cloneDelivery(d), nil
}

func (r *deliveryRepository) byID(id kernel.UUID) (*delivery.Delivery, bool) {
	if r.uow.tx != nil {
		if d, ok := r.uow.tx.deliveries[id]; ok {
			return d, true
		}
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	return d, ok
}

type clientRepository struct {
	store *Store
}

func (r *clientRepository) Get(_ context.Context, id kernel.UUID) (catalog.Client, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.clients[id]
	if !ok {
		return catalog.Client{}, errs.NewObjectNotFoundError("client", id.String())
	}
	return c, nil
}

type productRepository struct {
	store *Store
}

func (r *productRepository) Get(_ context.Context, id kernel.UUID) (catalog.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.products[id]
	if !ok {
		return catalog.Product{}, errs.NewObjectNotFoundError("product", id.String())
	}
	return p, nil
}

type warehouseRepository struct {
	store *Store
}

func (r *warehouseRepository) Get(_ context.Context, id kernel.UUID) (catalog.Warehouse, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	w, ok := r.store.warehouses[id]
	if !ok {
		return catalog.Warehouse{}, errs.NewObjectNotFoundError("warehouse", id.String())
	}
	return w, nil
}

func (r *warehouseRepository) ListActive(_ context.Context) ([]catalog.Warehouse, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]catalog.Warehouse, 0, len(r.store.warehouses))
	for _, w := range r.store.warehouses {
		if w.Active {
			result = append(result, w)
		}
	}
	slices.SortFunc(result, func(a, b catalog.Warehouse) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return result, nil
}
