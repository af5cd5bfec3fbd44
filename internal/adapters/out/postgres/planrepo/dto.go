// Package planrepo persists distribution plans. Allocations are child rows of
// the plan; Position keeps them in the order the engine produced them.
package planrepo

import (
	"time"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type PlanDTO struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Status         string          `gorm:"type:varchar(16);not null;index"`
	WarehouseScope []uuid.UUID     `gorm:"type:jsonb;serializer:json"`
	OrderCount     int             `gorm:"not null"`
	TotalRequested int             `gorm:"not null"`
	CreatedAt      time.Time       `gorm:"not null;index"`
	ExecutedAt     *time.Time      `gorm:""`
	Allocations    []AllocationDTO `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for plans.
func (PlanDTO) TableName() string {
	return "distribution_plans"
}

type AllocationDTO struct {
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey"`
	PlanID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position          int                  `gorm:"not null"`
	OrderID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	LineNumber        int                  `gorm:"not null"`
	ProductID         uuid.UUID            `gorm:"type:uuid;not null"`
	WarehouseID       uuid.UUID            `gorm:"type:uuid;not null"`
	LotID             *uuid.UUID           `gorm:"type:uuid"`
	RequestedQuantity int                  `gorm:"not null"`
	AllocatedQuantity int                  `gorm:"not null"`
	PriorityScore     float64              `gorm:"not null"`
	Status            string               `gorm:"type:varchar(16);not null"`
	Reservations      []columns.PortionDTO `gorm:"type:jsonb;serializer:json"`
}

// TableName specifies the database table name for allocations.
func (AllocationDTO) TableName() string {
	return "plan_allocations"
}

func fromDomain(plan *distribution.Plan) PlanDTO {
	id := plan.ID().Bytes()
	allocations := make([]AllocationDTO, 0, len(plan.Allocations()))
	for i, a := range plan.Allocations() {
		allocations = append(allocations, AllocationDTO{
			ID:                a.ID().Bytes(),
			PlanID:            id,
			Position:          i,
			OrderID:           a.OrderID().Bytes(),
			LineNumber:        a.LineNumber(),
			ProductID:         a.ProductID().Bytes(),
			WarehouseID:       a.WarehouseID().Bytes(),
			LotID:             columns.FromOptionalUUID(a.LotID()),
			RequestedQuantity: a.RequestedQuantity(),
			AllocatedQuantity: a.AllocatedQuantity(),
			PriorityScore:     a.PriorityScore(),
			Status:            string(a.Status()),
			Reservations:      columns.FromPortions(a.Reservations()),
		})
	}

	return PlanDTO{
		ID:             id,
		Status:         string(plan.Status()),
		WarehouseScope: columns.FromUUIDs(plan.WarehouseScope()),
		OrderCount:     plan.OrderCount(),
		TotalRequested: plan.TotalRequested(),
		CreatedAt:      plan.CreatedAt(),
		ExecutedAt:     plan.ExecutedAt(),
		Allocations:    allocations,
	}
}

func toDomain(dto PlanDTO) (*distribution.Plan, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	scope, err := columns.ToUUIDs(dto.WarehouseScope)
	if err != nil {
		return nil, err
	}

	allocations := make([]*distribution.Allocation, 0, len(dto.Allocations))
	for _, a := range dto.Allocations {
		allocation, allocErr := allocationToDomain(a)
		if allocErr != nil {
			return nil, allocErr
		}
		allocations = append(allocations, allocation)
	}

	return distribution.RestorePlan(id, distribution.PlanStatus(dto.Status), scope, dto.OrderCount,
		dto.TotalRequested, allocations, dto.CreatedAt, dto.ExecutedAt)
}

func allocationToDomain(dto AllocationDTO) (*distribution.Allocation, error) {
	ids, err := columns.ToUUIDs([]uuid.UUID{dto.ID, dto.OrderID, dto.ProductID, dto.WarehouseID})
	if err != nil {
		return nil, err
	}
	var lotID *kernel.UUID
	if lotID, err = columns.ToOptionalUUID(dto.LotID); err != nil {
		return nil, err
	}
	portions, err := columns.ToPortions(dto.Reservations)
	if err != nil {
		return nil, err
	}

	return distribution.RestoreAllocation(ids[0], ids[1], dto.LineNumber, ids[2], ids[3], lotID,
		dto.RequestedQuantity, dto.AllocatedQuantity, dto.PriorityScore,
		distribution.AllocationStatus(dto.Status), portions)
}
