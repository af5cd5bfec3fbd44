package orderrepo

import (
	"context"
	"errors"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/core/domain/model/order"
	"distribution/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db       *gorm.DB
	tracker  aggregateTracker
	lockRows bool
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository. lockRows makes Get
// and ListByIDs lock the order rows they read.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker, lockRows bool) *GormOrderRepository {
	return &GormOrderRepository{
		db:       db,
		tracker:  tracker,
		lockRows: lockRows,
	}
}

// Add saves a new order and its lines.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves the status and the line reservations. Lines themselves are
// immutable after creation, so they are upserted in place.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).
		Select("status", "updated_at").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if len(dto.Lines) > 0 {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{"reservations"}),
		}).Create(&dto.Lines).Error
		if err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.query(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListByIDs retrieves the orders in the order of ids.
func (r *GormOrderRepository) ListByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var dtos []OrderDTO
	if err := r.query(ctx).Where("id IN ?", columns.FromUUIDs(ids)).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	byID := make(map[kernel.UUID]*order.Order, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		byID[o.ID()] = o
	}

	orders := make([]*order.Order, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// query preloads lines by number.
func (r *GormOrderRepository) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("number")
	})
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}
