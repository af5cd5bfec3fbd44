package postgres

import (
	"distribution/internal/adapters/out/postgres/catalogrepo"
	"distribution/internal/adapters/out/postgres/deliveryrepo"
	"distribution/internal/adapters/out/postgres/lotrepo"
	"distribution/internal/adapters/out/postgres/orderrepo"
	"distribution/internal/adapters/out/postgres/planrepo"
	"distribution/internal/adapters/out/postgres/txlogrepo"

	"gorm.io/gorm"
)

// Models lists every table the engine reads or writes.
func Models() []any {
	return []any{
		&catalogrepo.ClientDTO{},
		&catalogrepo.ProductDTO{},
		&catalogrepo.WarehouseDTO{},
		&lotrepo.LotDTO{},
		&txlogrepo.TransactionDTO{},
		&orderrepo.OrderDTO{},
		&orderrepo.OrderLineDTO{},
		&planrepo.PlanDTO{},
		&planrepo.AllocationDTO{},
		&deliveryrepo.DeliveryDTO{},
		&deliveryrepo.StopDTO{},
	}
}

// Migrate creates or alters the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
