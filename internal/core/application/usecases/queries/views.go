// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return read models shaped for the HTTP adapter; they never write.
package queries

import (
	"time"

	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/order"
)

type PortionView struct {
	LotID    string `json:"lotId"`
	Quantity int    `json:"quantity"`
}

type LotView struct {
	ID             string     `json:"id"`
	ProductID      string     `json:"productId"`
	WarehouseID    string     `json:"warehouseId"`
	LocationID     string     `json:"locationId,omitempty"`
	BatchNumber    string     `json:"batchNumber,omitempty"`
	Quantity       int        `json:"quantity"`
	Reserved       int        `json:"reserved"`
	Available      int        `json:"available"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	CostPrice      *string    `json:"costPrice,omitempty"`
	ReceivedAt     time.Time  `json:"receivedAt"`
	LastMovementAt time.Time  `json:"lastMovementAt"`
}

func NewLotView(lot *inventory.Lot) LotView {
	v := LotView{
		ID:             lot.ID().String(),
		ProductID:      lot.ProductID().String(),
		WarehouseID:    lot.WarehouseID().String(),
		LocationID:     lot.Key().LocationID,
		BatchNumber:    lot.Key().BatchNumber,
		Quantity:       lot.Quantity(),
		Reserved:       lot.Reserved(),
		Available:      lot.Available(),
		ExpiryDate:     lot.ExpiryDate(),
		ReceivedAt:     lot.ReceivedAt(),
		LastMovementAt: lot.LastMovementAt(),
	}
	if cost := lot.CostPrice(); cost != nil {
		s := cost.String()
		v.CostPrice = &s
	}
	return v
}

func NewLotViews(lots []*inventory.Lot) []LotView {
	views := make([]LotView, 0, len(lots))
	for _, lot := range lots {
		views = append(views, NewLotView(lot))
	}
	return views
}

type TransactionView struct {
	ID             string    `json:"id"`
	LotID          string    `json:"lotId"`
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	Reference      string    `json:"reference,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	Note           string    `json:"note,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func newTransactionView(t *inventory.Transaction) TransactionView {
	return TransactionView{
		ID:             t.ID().String(),
		LotID:          t.LotID().String(),
		Type:           string(t.Type()),
		Quantity:       t.Quantity(),
		Reference:      t.Reference().String(),
		ActorID:        t.ActorID(),
		Note:           t.Note(),
		IdempotencyKey: t.IdempotencyKey(),
		OccurredAt:     t.OccurredAt(),
	}
}

type OrderLineView struct {
	Number       int           `json:"number"`
	ProductID    string        `json:"productId"`
	Quantity     int           `json:"quantity"`
	UnitPrice    string        `json:"unitPrice"`
	Total        string        `json:"total"`
	Reserved     int           `json:"reserved"`
	Reservations []PortionView `json:"reservations"`
}

type OrderView struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"clientId"`
	WarehouseID  string          `json:"warehouseId"`
	Priority     int             `json:"priority"`
	Status       string          `json:"status"`
	RequiredDate time.Time       `json:"requiredDate"`
	Total        string          `json:"total"`
	Lines        []OrderLineView `json:"lines"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func NewOrderView(o *order.Order) OrderView {
	v := OrderView{
		ID:           o.ID().String(),
		ClientID:     o.ClientID().String(),
		WarehouseID:  o.WarehouseID().String(),
		Priority:     o.Priority(),
		Status:       o.Status().String(),
		RequiredDate: o.RequiredDate(),
		Total:        o.Total().StringFixed(2),
		Lines:        make([]OrderLineView, 0, len(o.Lines())),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
	for _, line := range o.Lines() {
		v.Lines = append(v.Lines, OrderLineView{
			Number:       line.Number(),
			ProductID:    line.ProductID().String(),
			Quantity:     line.Quantity(),
			UnitPrice:    line.UnitPrice().StringFixed(2),
			Total:        line.Total().StringFixed(2),
			Reserved:     line.ReservedQuantity(),
			Reservations: NewPortionViews(line.Reservations()),
		})
	}
	return v
}

type AllocationView struct {
	ID                string        `json:"id"`
	OrderID           string        `json:"orderId"`
	LineNumber        int           `json:"lineNumber"`
	ProductID         string        `json:"productId"`
	WarehouseID       string        `json:"warehouseId"`
	LotID             *string       `json:"lotId,omitempty"`
	RequestedQuantity int           `json:"requestedQuantity"`
	AllocatedQuantity int           `json:"allocatedQuantity"`
	Partial           bool          `json:"partial"`
	PriorityScore     float64       `json:"priorityScore"`
	Status            string        `json:"status"`
	Reservations      []PortionView `json:"reservations"`
}

type PlanView struct {
	ID                string           `json:"id"`
	Status            string           `json:"status"`
	WarehouseScope    []string         `json:"warehouseScope"`
	OrderCount        int              `json:"orderCount"`
	TotalRequested    int              `json:"totalRequested"`
	TotalAllocated    int              `json:"totalAllocated"`
	OptimizationScore float64          `json:"optimizationScore"`
	Allocations       []AllocationView `json:"allocations"`
	CreatedAt         time.Time        `json:"createdAt"`
	ExecutedAt        *time.Time       `json:"executedAt,omitempty"`
}

func NewPlanView(p *distribution.Plan) PlanView {
	v := PlanView{
		ID:                p.ID().String(),
		Status:            string(p.Status()),
		WarehouseScope:    make([]string, 0, len(p.WarehouseScope())),
		OrderCount:        p.OrderCount(),
		TotalRequested:    p.TotalRequested(),
		TotalAllocated:    p.TotalAllocated(),
		OptimizationScore: p.OptimizationScore(),
		Allocations:       make([]AllocationView, 0, len(p.Allocations())),
		CreatedAt:         p.CreatedAt(),
		ExecutedAt:        p.ExecutedAt(),
	}
	for _, id := range p.WarehouseScope() {
		v.WarehouseScope = append(v.WarehouseScope, id.String())
	}
	for _, a := range p.Allocations() {
		av := AllocationView{
			ID:                a.ID().String(),
			OrderID:           a.OrderID().String(),
			LineNumber:        a.LineNumber(),
			ProductID:         a.ProductID().String(),
			WarehouseID:       a.WarehouseID().String(),
			RequestedQuantity: a.RequestedQuantity(),
			AllocatedQuantity: a.AllocatedQuantity(),
			Partial:           a.IsPartial(),
			PriorityScore:     a.PriorityScore(),
			Status:            string(a.Status()),
			Reservations:      NewPortionViews(a.Reservations()),
		}
		if lotID := a.LotID(); lotID != nil {
			s := lotID.String()
			av.LotID = &s
		}
		v.Allocations = append(v.Allocations, av)
	}
	return v
}

type StopView struct {
	OrderID        string  `json:"orderId"`
	SequenceNumber int     `json:"sequenceNumber"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Priority       int     `json:"priority"`
	HopDistanceKm  float64 `json:"hopDistanceKm"`
	Status         string  `json:"status"`
}

type DeliveryView struct {
	ID               string     `json:"id"`
	WarehouseID      string     `json:"warehouseId"`
	ScheduledDate    time.Time  `json:"scheduledDate"`
	Status           string     `json:"status"`
	TotalDistanceKm  float64    `json:"totalDistanceKm"`
	EstimatedMinutes float64    `json:"estimatedMinutes"`
	Stops            []StopView `json:"stops"`
}

func NewDeliveryView(d *delivery.Delivery) DeliveryView {
	v := DeliveryView{
		ID:               d.ID().String(),
		WarehouseID:      d.WarehouseID().String(),
		ScheduledDate:    d.ScheduledDate(),
		Status:           string(d.Status()),
		TotalDistanceKm:  d.TotalDistanceKm(),
		EstimatedMinutes: d.EstimatedMinutes(),
		Stops:            make([]StopView, 0, len(d.Stops())),
	}
	for _, s := range d.Stops() {
		v.Stops = append(v.Stops, StopView{
			OrderID:        s.OrderID.String(),
			SequenceNumber: s.SequenceNumber,
			Latitude:       s.Destination.Latitude(),
			Longitude:      s.Destination.Longitude(),
			Priority:       s.Priority,
			HopDistanceKm:  s.HopDistanceKm,
			Status:         string(s.Status),
		})
	}
	return v
}

func NewPortionViews(portions []inventory.Portion) []PortionView {
	views := make([]PortionView, 0, len(portions))
	for _, p := range portions {
		views = append(views, PortionView{LotID: p.LotID.String(), Quantity: p.Quantity})
	}
	return views
}
