package ports

import (
	"context"
)

// UnitOfWorkFactory hands out a fresh UnitOfWork per command or query.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary. Every repository it
// returns after Begin shares the transaction; Rollback discards all of their writes.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	// Commit applies every staged lot, journal, order, plan and delivery write.
	Commit(ctx context.Context) error
	// Rollback discards staged writes. Once Commit has run it only returns an error.
	Rollback(ctx context.Context) error

	LotRepository() LotRepository
	TransactionLogRepository() TransactionLogRepository
	OrderRepository() OrderRepository
	PlanRepository() PlanRepository
	DeliveryRepository() DeliveryRepository
	ClientRepository() ClientRepository
	ProductRepository() ProductRepository
	WarehouseRepository() WarehouseRepository
}
