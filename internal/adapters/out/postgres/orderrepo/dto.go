// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// An order is stored as an "orders" row plus one "order_lines" row per line; the
// lot portions a line holds live in a JSON column on the line.
package orderrepo

import (
	"time"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
type OrderDTO struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ClientID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	WarehouseID  uuid.UUID      `gorm:"type:uuid;not null"`
	Priority     int            `gorm:"type:smallint;not null"`
	RequiredDate time.Time      `gorm:"not null"`
	Status       int            `gorm:"type:smallint;not null;index"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	Lines        []OrderLineDTO `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// OrderLineDTO is keyed by (order id, line number).
type OrderLineDTO struct {
	OrderID      uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Number       int                  `gorm:"primaryKey;autoIncrement:false"`
	ProductID    uuid.UUID            `gorm:"type:uuid;not null"`
	Quantity     int                  `gorm:"not null"`
	UnitPrice    decimal.Decimal      `gorm:"type:numeric(14,4);not null"`
	Reservations []columns.PortionDTO `gorm:"type:jsonb;serializer:json"`
}

// TableName specifies the database table name for order lines.
func (OrderLineDTO) TableName() string {
	return "order_lines"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	id := aggregate.ID().Bytes()
	lines := make([]OrderLineDTO, 0, len(aggregate.Lines()))
	for _, line := range aggregate.Lines() {
		lines = append(lines, OrderLineDTO{
			OrderID:      id,
			Number:       line.Number(),
			ProductID:    line.ProductID().Bytes(),
			Quantity:     line.Quantity(),
			UnitPrice:    line.UnitPrice(),
			Reservations: columns.FromPortions(line.Reservations()),
		})
	}

	return OrderDTO{
		ID:           id,
		ClientID:     aggregate.ClientID().Bytes(),
		WarehouseID:  aggregate.WarehouseID().Bytes(),
		Priority:     aggregate.Priority(),
		RequiredDate: aggregate.RequiredDate(),
		Status:       int(aggregate.Status()),
		CreatedAt:    aggregate.CreatedAt(),
		UpdatedAt:    aggregate.UpdatedAt(),
		Lines:        lines,
	}
}

// toDomain rebuilds the aggregate with its lines in number order.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	clientID, err := columns.ToUUID(dto.ClientID)
	if err != nil {
		return nil, err
	}
	warehouseID, err := columns.ToUUID(dto.WarehouseID)
	if err != nil {
		return nil, err
	}

	lines := make([]*order.Line, 0, len(dto.Lines))
	for _, l := range dto.Lines {
		productID, productErr := columns.ToUUID(l.ProductID)
		if productErr != nil {
			return nil, productErr
		}
		portions, portionErr := columns.ToPortions(l.Reservations)
		if portionErr != nil {
			return nil, portionErr
		}
		line, lineErr := order.RestoreLine(l.Number, productID, l.Quantity, l.UnitPrice, portions)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	return order.RestoreOrder(id, clientID, warehouseID, dto.Priority, dto.RequiredDate,
		order.Status(dto.Status), lines, dto.CreatedAt, dto.UpdatedAt)
}
