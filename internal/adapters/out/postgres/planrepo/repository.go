package planrepo

import (
	"context"
	"errors"

	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// GormPlanRepository implements ports.PlanRepository.
type GormPlanRepository struct {
	db       *gorm.DB
	tracker  aggregateTracker
	lockRows bool
}

func NewGormPlanRepository(db *gorm.DB, tracker aggregateTracker, lockRows bool) *GormPlanRepository {
	return &GormPlanRepository{
		db:       db,
		tracker:  tracker,
		lockRows: lockRows,
	}
}

func (r *GormPlanRepository) Add(ctx context.Context, plan *distribution.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	dto := fromDomain(plan)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(plan.ID(), plan)
	return nil
}

// Update writes the plan status and the mutable allocation columns.
func (r *GormPlanRepository) Update(ctx context.Context, plan *distribution.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	dto := fromDomain(plan)
	result := r.db.WithContext(ctx).Model(&PlanDTO{}).Where("id = ?", dto.ID).
		Select("status", "executed_at").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("plan", plan.ID().String())
	}

	if len(dto.Allocations) > 0 {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "reservations"}),
		}).Create(&dto.Allocations).Error
		if err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(plan.ID(), plan)
	return nil
}

func (r *GormPlanRepository) Get(ctx context.Context, id kernel.UUID) (*distribution.Plan, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto PlanDTO
	if err := r.query(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("plan", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

// ListByOrder returns the plans holding an allocation for the order, oldest first.
func (r *GormPlanRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*distribution.Plan, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	owning := r.db.Model(&AllocationDTO{}).Select("plan_id").Where("order_id = ?", orderID.Bytes())

	var dtos []PlanDTO
	if err := r.query(ctx).Where("id IN (?)", owning).Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	plans := make([]*distribution.Plan, 0, len(dtos))
	for _, dto := range dtos {
		plan, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (r *GormPlanRepository) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx).Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}
