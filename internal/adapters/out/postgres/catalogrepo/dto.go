// Package catalogrepo reads the client, product and warehouse tables maintained
// by the catalog services. Save exists for seeding and tests only.
package catalogrepo

import (
	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClientDTO struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name           string          `gorm:"type:varchar(255);not null"`
	Latitude       *float64        `gorm:""`
	Longitude      *float64        `gorm:""`
	CreditLimit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PricingTier    string          `gorm:"type:varchar(32);not null;default:''"`
}

func (ClientDTO) TableName() string {
	return "clients"
}

type ProductDTO struct {
	ID           uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	SKU          string                     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name         string                     `gorm:"type:varchar(255);not null"`
	Unit         string                     `gorm:"type:varchar(16);not null;default:''"`
	BasePrice    decimal.Decimal            `gorm:"type:numeric(14,4);not null"`
	TierPrices   map[string]decimal.Decimal `gorm:"type:jsonb;serializer:json"`
	Perishable   bool                       `gorm:"not null;default:false"`
	ReorderLevel int                        `gorm:"not null;default:0"`
}

func (ProductDTO) TableName() string {
	return "products"
}

type WarehouseDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;index"`
	Latitude  *float64  `gorm:""`
	Longitude *float64  `gorm:""`
	Capacity  int       `gorm:"not null;default:0"`
	Active    bool      `gorm:"not null;default:true"`
}

func (WarehouseDTO) TableName() string {
	return "warehouses"
}

func clientFromDomain(c catalog.Client) ClientDTO {
	lat, lng := coordinates(c.Location)
	return ClientDTO{
		ID:             c.ID.Bytes(),
		Name:           c.Name,
		Latitude:       lat,
		Longitude:      lng,
		CreditLimit:    c.CreditLimit,
		CurrentBalance: c.CurrentBalance,
		PricingTier:    c.PricingTier,
	}
}

func clientToDomain(dto ClientDTO) (catalog.Client, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return catalog.Client{}, err
	}
	loc, err := columns.ToLocation(dto.Latitude, dto.Longitude)
	if err != nil {
		return catalog.Client{}, err
	}
	c := catalog.Client{
		ID:             id,
		Name:           dto.Name,
		Location:       loc,
		CreditLimit:    dto.CreditLimit,
		CurrentBalance: dto.CurrentBalance,
		PricingTier:    dto.PricingTier,
	}
	return c, c.Validate()
}

func productFromDomain(p catalog.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID.Bytes(),
		SKU:          p.SKU,
		Name:         p.Name,
		Unit:         p.Unit,
		BasePrice:    p.BasePrice,
		TierPrices:   p.TierPrices,
		Perishable:   p.Perishable,
		ReorderLevel: p.ReorderLevel,
	}
}

func productToDomain(dto ProductDTO) (catalog.Product, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return catalog.Product{}, err
	}
	p := catalog.Product{
		ID:           id,
		SKU:          dto.SKU,
		Name:         dto.Name,
		Unit:         dto.Unit,
		BasePrice:    dto.BasePrice,
		TierPrices:   dto.TierPrices,
		Perishable:   dto.Perishable,
		ReorderLevel: dto.ReorderLevel,
	}
	return p, p.Validate()
}

func warehouseFromDomain(w catalog.Warehouse) WarehouseDTO {
	lat, lng := coordinates(w.Location)
	return WarehouseDTO{
		ID:        w.ID.Bytes(),
		Name:      w.Name,
		Latitude:  lat,
		Longitude: lng,
		Capacity:  w.Capacity,
		Active:    w.Active,
	}
}

func warehouseToDomain(dto WarehouseDTO) (catalog.Warehouse, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return catalog.Warehouse{}, err
	}
	loc, err := columns.ToLocation(dto.Latitude, dto.Longitude)
	if err != nil {
		return catalog.Warehouse{}, err
	}
	w := catalog.Warehouse{
		ID:       id,
		Name:     dto.Name,
		Location: loc,
		Capacity: dto.Capacity,
		Active:   dto.Active,
	}
	return w, w.Validate()
}
