// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, key locking, transaction
// management, persistence and event publishing after commit.
package commands

import (
	"context"

	"distribution/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// LedgerRepoFactory provides the lot store and the transaction log.
	LedgerRepoFactory interface {
		LotRepository() ports.LotRepository
		TransactionLogRepository() ports.TransactionLogRepository
	}

	// CatalogRepoFactory provides read-only reference data.
	CatalogRepoFactory interface {
		ClientRepository() ports.ClientRepository
		ProductRepository() ports.ProductRepository
		WarehouseRepository() ports.WarehouseRepository
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	PlanRepoFactory interface {
		PlanRepository() ports.PlanRepository
	}

	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// StockUoW manages transactions for stock movements that touch lots only.
	StockUoW interface {
		TxManager
		LedgerRepoFactory
		CatalogRepoFactory
	}

	// StockUoWFactory creates new stock unit of work instances.
	StockUoWFactory interface {
		Create() StockUoW
	}

	// UoW manages transactions across orders, plans and the ledger.
	// Used for commands that coordinate changes between multiple aggregate types.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   lots := uow.LotRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		LedgerRepoFactory
		CatalogRepoFactory
		OrderRepoFactory
		PlanRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}

	// DeliveryUoW manages transactions for delivery scheduling.
	DeliveryUoW interface {
		TxManager
		CatalogRepoFactory
		OrderRepoFactory
		DeliveryRepoFactory
	}

	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}
)
