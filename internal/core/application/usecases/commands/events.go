package commands

import (
	"time"

	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/core/ports"
)

type LotChanged struct {
	LotID       string `json:"lotId"`
	ProductID   string `json:"productId"`
	WarehouseID string `json:"warehouseId"`
	LocationID  string `json:"locationId,omitempty"`
	BatchNumber string `json:"batchNumber,omitempty"`
	Quantity    int    `json:"quantity"`
	Reserved    int    `json:"reserved"`
	Available   int    `json:"available"`
}

type OrderChanged struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	Reserved int    `json:"reserved"`
}

type DeliveryChanged struct {
	DeliveryID string `json:"deliveryId"`
	Status     string `json:"status"`
	Stops      int    `json:"stops"`
}

func inventoryEvents(lots []*inventory.Lot, at time.Time) []ports.DomainEvent {
	events := make([]ports.DomainEvent, 0, len(lots))
	for _, lot := range lots {
		events = append(events, ports.DomainEvent{
			Type:        ports.EventInventoryUpdated,
			AggregateID: lot.ID().String(),
			OccurredAt:  at,
			Payload: LotChanged{
				LotID:       lot.ID().String(),
				ProductID:   lot.ProductID().String(),
				WarehouseID: lot.WarehouseID().String(),
				LocationID:  lot.Key().LocationID,
				BatchNumber: lot.Key().BatchNumber,
				Quantity:    lot.Quantity(),
				Reserved:    lot.Reserved(),
				Available:   lot.Available(),
			},
		})
	}
	return events
}

func orderEvent(o *order.Order, at time.Time) ports.DomainEvent {
	return ports.DomainEvent{
		Type:        ports.EventOrderUpdated,
		AggregateID: o.ID().String(),
		OccurredAt:  at,
		Payload: OrderChanged{
			OrderID:  o.ID().String(),
			Status:   o.Status().String(),
			Reserved: o.ReservedQuantity(),
		},
	}
}

func deliveryEvent(d *delivery.Delivery, at time.Time) ports.DomainEvent {
	return ports.DomainEvent{
		Type:        ports.EventDeliveryUpdated,
		AggregateID: d.ID().String(),
		OccurredAt:  at,
		Payload: DeliveryChanged{
			DeliveryID: d.ID().String(),
			Status:     string(d.Status()),
			Stops:      len(d.Stops()),
		},
	}
}
