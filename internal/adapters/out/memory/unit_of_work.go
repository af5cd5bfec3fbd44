package memory

import (
	"context"
	"errors"

	"distribution/internal/core/ports"
)

var ErrTransactionNotActive = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork reads committed state merged with its own staged writes. Outside
// a transaction writes go straight to the store.
type UnitOfWork struct {
	store *Store
	tx    *changes
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.tx == nil {
		uow.tx = newChanges()
	}
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return ErrTransactionNotActive
	}
	uow.store.apply(uow.tx)
	uow.tx = nil
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return ErrTransactionNotActive
	}
	uow.tx = nil
	return nil
}

func (uow *UnitOfWork) LotRepository() ports.LotRepository {
	return &lotRepository{uow: uow}
}

func (uow *UnitOfWork) TransactionLogRepository() ports.TransactionLogRepository {
	return &transactionLogRepository{uow: uow}
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

func (uow *UnitOfWork) PlanRepository() ports.PlanRepository {
	return &planRepository{uow: uow}
}

func (uow *UnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	return &deliveryRepository{uow: uow}
}

func (uow *UnitOfWork) ClientRepository() ports.ClientRepository {
	return &clientRepository{store: uow.store}
}

func (uow *UnitOfWork) ProductRepository() ports.ProductRepository {
	return &productRepository{store: uow.store}
}

func (uow *UnitOfWork) WarehouseRepository() ports.WarehouseRepository {
	return &warehouseRepository{store: uow.store}
}

// write stages fn against the open transaction or, without one, applies it at once.
func (uow *UnitOfWork) write(fn func(c *changes)) {
	if uow.tx != nil {
		fn(uow.tx)
		return
	}
	c := newChanges()
	fn(c)
	uow.store.apply(c)
}
