package ports

import (
	"context"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/kernel"
)

// Catalog records are owned by external services; the core only reads them.
type (
	ClientRepository interface {
		Get(ctx context.Context, id kernel.UUID) (catalog.Client, error)
	}

	ProductRepository interface {
		Get(ctx context.Context, id kernel.UUID) (catalog.Product, error)
	}

	WarehouseRepository interface {
		Get(ctx context.Context, id kernel.UUID) (catalog.Warehouse, error)

		// ListActive returns active warehouses ordered by name.
		ListActive(ctx context.Context) ([]catalog.Warehouse, error)
	}
)
