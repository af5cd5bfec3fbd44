// Package lotrepo persists inventory lots. A lot row is unique per lot key.
package lotrepo

import (
	"time"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/inventory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotDTO is the "lots" row. The check constraint mirrors the reservation invariant.
type LotDTO struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lots_key,priority:1"`
	WarehouseID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lots_key,priority:2;index"`
	LocationID     string           `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_lots_key,priority:3"`
	BatchNumber    string           `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_lots_key,priority:4"`
	Quantity       int              `gorm:"not null;check:chk_lots_reserved,reserved >= 0 AND reserved <= quantity"`
	Reserved       int              `gorm:"not null"`
	ExpiryDate     *time.Time       `gorm:"type:date"`
	CostPrice      *decimal.Decimal `gorm:"type:numeric(14,4)"`
	ReceivedAt     time.Time        `gorm:"not null;index"`
	LastMovementAt time.Time        `gorm:"not null"`
}

// TableName overrides the default pluralised "lot_dtos".
func (LotDTO) TableName() string {
	return "lots"
}

func fromDomain(lot *inventory.Lot) LotDTO {
	key := lot.Key()
	return LotDTO{
		ID:             lot.ID().Bytes(),
		ProductID:      key.ProductID.Bytes(),
		WarehouseID:    key.WarehouseID.Bytes(),
		LocationID:     key.LocationID,
		BatchNumber:    key.BatchNumber,
		Quantity:       lot.Quantity(),
		Reserved:       lot.Reserved(),
		ExpiryDate:     lot.ExpiryDate(),
		CostPrice:      lot.CostPrice(),
		ReceivedAt:     lot.ReceivedAt(),
		LastMovementAt: lot.LastMovementAt(),
	}
}

func toDomain(dto LotDTO) (*inventory.Lot, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	key, err := columns.ToLotKey(dto.ProductID, dto.WarehouseID, dto.LocationID, dto.BatchNumber)
	if err != nil {
		return nil, err
	}
	return inventory.RestoreLot(id, key, dto.Quantity, dto.Reserved, dto.ExpiryDate, dto.CostPrice,
		dto.ReceivedAt, dto.LastMovementAt)
}
