// Package ports defines the contracts between the application core and its
// adapters: repositories, the unit of work, key locks and event publishing.
package ports

import (
	"context"

	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
)

// LotFilter narrows lot listings. Nil fields match everything.
type LotFilter struct {
	ProductID    *kernel.UUID
	WarehouseID  *kernel.UUID
	WarehouseIDs []kernel.UUID
	OnlyInStock  bool
}

// LotRepository persists inventory lots. Inside a transaction, implementations
// that support row locks lock every lot they return until commit.
type LotRepository interface {
	Add(ctx context.Context, lot *inventory.Lot) error
	Update(ctx context.Context, lot *inventory.Lot) error

	// Get returns errs.ObjectNotFoundError when no lot has the id.
	Get(ctx context.Context, id kernel.UUID) (*inventory.Lot, error)

	// GetByKey returns errs.ObjectNotFoundError when the key has never received stock.
	GetByKey(ctx context.Context, key inventory.LotKey) (*inventory.Lot, error)

	// Find lists lots matching filter, ordered by receipt time.
	Find(ctx context.Context, filter LotFilter) ([]*inventory.Lot, error)
}

// TransactionLogRepository is the append-only transaction log. There is no
// update or delete.
type TransactionLogRepository interface {
	Append(ctx context.Context, entry *inventory.Transaction) error

	// ListByLot returns a lot's entries in timestamp order.
	ListByLot(ctx context.Context, lotID kernel.UUID) ([]*inventory.Transaction, error)

	// FindByIdempotencyKey returns every entry recorded under key.
	FindByIdempotencyKey(ctx context.Context, key string) ([]*inventory.Transaction, error)
}
