// Package columns holds the value mappings shared by the gorm repositories.
package columns

import (
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// PortionDTO is a reservation portion, stored in a JSON column next to the
// row that holds it.
type PortionDTO struct {
	LotID       uuid.UUID `json:"lotId"`
	ProductID   uuid.UUID `json:"productId"`
	WarehouseID uuid.UUID `json:"warehouseId"`
	LocationID  string    `json:"locationId,omitempty"`
	BatchNumber string    `json:"batchNumber,omitempty"`
	Quantity    int       `json:"quantity"`
}

func FromPortions(portions []inventory.Portion) []PortionDTO {
	dtos := make([]PortionDTO, 0, len(portions))
	for _, p := range portions {
		dtos = append(dtos, PortionDTO{
			LotID:       p.LotID.Bytes(),
			ProductID:   p.Key.ProductID.Bytes(),
			WarehouseID: p.Key.WarehouseID.Bytes(),
			LocationID:  p.Key.LocationID,
			BatchNumber: p.Key.BatchNumber,
			Quantity:    p.Quantity,
		})
	}
	return dtos
}

func ToPortions(dtos []PortionDTO) ([]inventory.Portion, error) {
	portions := make([]inventory.Portion, 0, len(dtos))
	for _, dto := range dtos {
		lotID, err := ToUUID(dto.LotID)
		if err != nil {
			return nil, err
		}
		key, err := ToLotKey(dto.ProductID, dto.WarehouseID, dto.LocationID, dto.BatchNumber)
		if err != nil {
			return nil, err
		}
		portions = append(portions, inventory.Portion{LotID: lotID, Key: key, Quantity: dto.Quantity})
	}
	return portions, nil
}

func ToUUID(id uuid.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func ToOptionalUUID(id *uuid.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil //nolint:nilnil // absent column
	}
	u, err := ToUUID(*id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func FromOptionalUUID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func FromUUIDs(ids []kernel.UUID) []uuid.UUID {
	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Bytes())
	}
	return raw
}

func ToUUIDs(raw []uuid.UUID) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := ToUUID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func ToLotKey(productID, warehouseID uuid.UUID, locationID, batchNumber string) (inventory.LotKey, error) {
	p, err := ToUUID(productID)
	if err != nil {
		return inventory.LotKey{}, err
	}
	w, err := ToUUID(warehouseID)
	if err != nil {
		return inventory.LotKey{}, err
	}
	return inventory.NewLotKey(p, w, locationID, batchNumber)
}

// ToLocation maps nullable coordinate columns; both must be set.
func ToLocation(latitude, longitude *float64) (*kernel.Location, error) {
	if latitude == nil || longitude == nil {
		return nil, nil //nolint:nilnil // no coordinates recorded
	}
	loc, err := kernel.NewLocation(*latitude, *longitude)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
