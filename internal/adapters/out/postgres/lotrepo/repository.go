package lotrepo

import (
	"context"
	"errors"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/ports"
	"distribution/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements ports.LotRepository. With lockRows set, every
// read takes FOR UPDATE row locks that hold until the transaction ends.
type GormLotRepository struct {
	db       *gorm.DB
	tracker  aggregateTracker
	lockRows bool
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormLotRepository(db *gorm.DB, tracker aggregateTracker, lockRows bool) *GormLotRepository {
	return &GormLotRepository{
		db:       db,
		tracker:  tracker,
		lockRows: lockRows,
	}
}

func (r *GormLotRepository) Add(ctx context.Context, lot *inventory.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}

	dto := fromDomain(lot)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(lot.ID(), lot)
	return nil
}

// Update writes the counters and lot details. The key never changes.
func (r *GormLotRepository) Update(ctx context.Context, lot *inventory.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}

	dto := fromDomain(lot)
	result := r.db.WithContext(ctx).Model(&LotDTO{}).Where("id = ?", dto.ID).Select(
		"quantity", "reserved", "expiry_date", "cost_price", "last_movement_at",
	).Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("lot", lot.ID().String())
	}

	r.tracker.TrackAggregate(lot.ID(), lot)
	return nil
}

func (r *GormLotRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.Lot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto LotDTO
	if err := r.query(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("lot", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormLotRepository) GetByKey(ctx context.Context, key inventory.LotKey) (*inventory.Lot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var dto LotDTO
	err := r.query(ctx).
		Where("product_id = ? AND warehouse_id = ? AND location_id = ? AND batch_number = ?",
			key.ProductID.Bytes(), key.WarehouseID.Bytes(), key.LocationID, key.BatchNumber).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("lot", key.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormLotRepository) Find(ctx context.Context, filter ports.LotFilter) ([]*inventory.Lot, error) {
	q := r.query(ctx)
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", filter.ProductID.Bytes())
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", filter.WarehouseID.Bytes())
	}
	if len(filter.WarehouseIDs) > 0 {
		q = q.Where("warehouse_id IN ?", columns.FromUUIDs(filter.WarehouseIDs))
	}
	if filter.OnlyInStock {
		q = q.Where("quantity > 0")
	}

	var dtos []LotDTO
	if err := q.Order("received_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	lots := make([]*inventory.Lot, 0, len(dtos))
	for _, dto := range dtos {
		lot, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func (r *GormLotRepository) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}
