package catalogrepo

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/catalog"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Get(ctx context.Context, id kernel.UUID) (catalog.Client, error) {
	var dto ClientDTO
	if err := first(ctx, r.db, &dto, "client", id); err != nil {
		return catalog.Client{}, err
	}
	return clientToDomain(dto)
}

func (r *GormClientRepository) Save(ctx context.Context, c catalog.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dto := clientFromDomain(c)
	return upsert(ctx, r.db, &dto)
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Get(ctx context.Context, id kernel.UUID) (catalog.Product, error) {
	var dto ProductDTO
	if err := first(ctx, r.db, &dto, "product", id); err != nil {
		return catalog.Product{}, err
	}
	return productToDomain(dto)
}

func (r *GormProductRepository) Save(ctx context.Context, p catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dto := productFromDomain(p)
	return upsert(ctx, r.db, &dto)
}

type GormWarehouseRepository struct {
	db *gorm.DB
}

func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

func (r *GormWarehouseRepository) Get(ctx context.Context, id kernel.UUID) (catalog.Warehouse, error) {
	var dto WarehouseDTO
	if err := first(ctx, r.db, &dto, "warehouse", id); err != nil {
		return catalog.Warehouse{}, err
	}
	return warehouseToDomain(dto)
}

// ListActive returns active warehouses ordered by name.
func (r *GormWarehouseRepository) ListActive(ctx context.Context) ([]catalog.Warehouse, error) {
	var dtos []WarehouseDTO
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("name, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	warehouses := make([]catalog.Warehouse, 0, len(dtos))
	for _, dto := range dtos {
		w, err := warehouseToDomain(dto)
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, nil
}

func (r *GormWarehouseRepository) Save(ctx context.Context, w catalog.Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}
	dto := warehouseFromDomain(w)
	return upsert(ctx, r.db, &dto)
}

func first(ctx context.Context, db *gorm.DB, dest any, name string, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := db.WithContext(ctx).First(dest, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError(name, id.String())
		}
		return err
	}
	return nil
}

func upsert(ctx context.Context, db *gorm.DB, dto any) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(dto).Error
}

func coordinates(loc *kernel.Location) (latitude, longitude *float64) {
	if loc == nil {
		return nil, nil
	}
	lat, lng := loc.Latitude(), loc.Longitude()
	return &lat, &lng
}
