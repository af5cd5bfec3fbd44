// Package postgres provides the GORM-based implementation of the Unit of Work pattern.
// The Unit of Work maintains the set of aggregates affected by a business
// transaction and coordinates writing out their changes.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	lot, err := uow.LotRepository().GetByKey(ctx, key) // row is locked FOR UPDATE
//	if err != nil {
//	    return err
//	}
//	// mutate lot, append to the transaction log ...
//
//	return uow.Commit(ctx)
//
// Concurrency Considerations:
//   - Each UnitOfWork instance provides an isolated transaction
//   - Inside a transaction, lot, order, plan and delivery reads take row locks
//     that are released on commit or rollback
//   - Multiple goroutines should use separate UnitOfWork instances
package postgres

import (
	"context"

	"distribution/internal/adapters/out/postgres/catalogrepo"
	"distribution/internal/adapters/out/postgres/deliveryrepo"
	"distribution/internal/adapters/out/postgres/lotrepo"
	"distribution/internal/adapters/out/postgres/orderrepo"
	"distribution/internal/adapters/out/postgres/planrepo"
	"distribution/internal/adapters/out/postgres/txlogrepo"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate represents an aggregate modified during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
// Each business operation gets a fresh unit of work instance.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with its own transaction state and
// aggregate tracking.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates a database transaction and tracks the aggregates
// written through its repositories.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin initiates a new database transaction for the unit of work.
// Multiple calls to Begin on the same instance are safe and will not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	uow.tx = tx
	return nil
}

// Commit finalizes all changes made within the current transaction.
// Returns error if no active transaction exists or if the commit operation fails.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards all changes made within the current transaction.
// Returns error if no active transaction exists, which makes a deferred Rollback
// after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// LotRepository provides access to lot persistence within the unit of work.
// Inside a transaction every lot it reads is locked until commit.
func (uow *GormUnitOfWork) LotRepository() ports.LotRepository {
	db, inTx := uow.conn()
	return lotrepo.NewGormLotRepository(db, uow, inTx)
}

// TransactionLogRepository provides access to the append-only transaction log.
func (uow *GormUnitOfWork) TransactionLogRepository() ports.TransactionLogRepository {
	db, _ := uow.conn()
	return txlogrepo.NewGormTransactionLogRepository(db)
}

// OrderRepository provides access to order persistence within the unit of work.
// Repository operations will execute within the current transaction if one is active,
// otherwise they use the main database connection for immediate execution.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db, inTx := uow.conn()
	return orderrepo.NewGormOrderRepository(db, uow, inTx)
}

func (uow *GormUnitOfWork) PlanRepository() ports.PlanRepository {
	db, inTx := uow.conn()
	return planrepo.NewGormPlanRepository(db, uow, inTx)
}

func (uow *GormUnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	db, inTx := uow.conn()
	return deliveryrepo.NewGormDeliveryRepository(db, uow, inTx)
}

func (uow *GormUnitOfWork) ClientRepository() ports.ClientRepository {
	db, _ := uow.conn()
	return catalogrepo.NewGormClientRepository(db)
}

func (uow *GormUnitOfWork) ProductRepository() ports.ProductRepository {
	db, _ := uow.conn()
	return catalogrepo.NewGormProductRepository(db)
}

func (uow *GormUnitOfWork) WarehouseRepository() ports.WarehouseRepository {
	db, _ := uow.conn()
	return catalogrepo.NewGormWarehouseRepository(db)
}

// TrackAggregate registers a domain aggregate as modified within this unit of work.
// It is called by repository implementations when aggregates are added or updated.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// TrackedAggregates lists the aggregates written since the last rollback.
func (uow *GormUnitOfWork) TrackedAggregates() []any {
	aggregates := make([]any, 0, len(uow.trackedAggregates))
	for _, t := range uow.trackedAggregates {
		aggregates = append(aggregates, t.Aggregate)
	}
	return aggregates
}

func (uow *GormUnitOfWork) conn() (db *gorm.DB, inTx bool) {
	if uow.tx != nil {
		return uow.tx, true
	}
	return uow.db, false
}
