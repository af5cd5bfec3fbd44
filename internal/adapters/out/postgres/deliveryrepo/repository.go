// Package deliveryrepo persists deliveries and their stops.
package deliveryrepo

import (
	"context"
	"errors"
	"time"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/delivery"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryDTO struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	WarehouseID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ScheduledDate    time.Time `gorm:"type:date;not null"`
	Status           string    `gorm:"type:varchar(16);not null"`
	TotalDistanceKm  float64   `gorm:"not null"`
	EstimatedMinutes float64   `gorm:"not null"`
	Stops            []StopDTO `gorm:"foreignKey:DeliveryID;references:ID;constraint:OnDelete:CASCADE"`
}

func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// StopDTO is keyed by (delivery id, sequence number).
type StopDTO struct {
	DeliveryID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	SequenceNumber int       `gorm:"primaryKey;autoIncrement:false"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Latitude       float64   `gorm:"not null"`
	Longitude      float64   `gorm:"not null"`
	Priority       int       `gorm:"type:smallint;not null"`
	HopDistanceKm  float64   `gorm:"not null"`
	Status         string    `gorm:"type:varchar(16);not null"`
}

func (StopDTO) TableName() string {
	return "delivery_stops"
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

type GormDeliveryRepository struct {
	db       *gorm.DB
	tracker  aggregateTracker
	lockRows bool
}

func NewGormDeliveryRepository(db *gorm.DB, tracker aggregateTracker, lockRows bool) *GormDeliveryRepository {
	return &GormDeliveryRepository{
		db:       db,
		tracker:  tracker,
		lockRows: lockRows,
	}
}

func (r *GormDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}

	dto := fromDomain(d)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(d.ID(), d)
	return nil
}

// Update writes the delivery status and stop outcomes.
func (r *GormDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}

	dto := fromDomain(d)
	result := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Where("id = ?", dto.ID).Select("status").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("delivery", d.ID().String())
	}

	if len(dto.Stops) > 0 {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "delivery_id"}, {Name: "sequence_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"status"}),
		}).Create(&dto.Stops).Error
		if err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(d.ID(), d)
	return nil
}

func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_number")
	})
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto DeliveryDTO
	if err := q.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func fromDomain(d *delivery.Delivery) DeliveryDTO {
	id := d.ID().Bytes()
	stops := make([]StopDTO, 0, len(d.Stops()))
	for _, s := range d.Stops() {
		stops = append(stops, StopDTO{
			DeliveryID:     id,
			SequenceNumber: s.SequenceNumber,
			OrderID:        s.OrderID.Bytes(),
			Latitude:       s.Destination.Latitude(),
			Longitude:      s.Destination.Longitude(),
			Priority:       s.Priority,
			HopDistanceKm:  s.HopDistanceKm,
			Status:         string(s.Status),
		})
	}

	return DeliveryDTO{
		ID:               id,
		WarehouseID:      d.WarehouseID().Bytes(),
		ScheduledDate:    d.ScheduledDate(),
		Status:           string(d.Status()),
		TotalDistanceKm:  d.TotalDistanceKm(),
		EstimatedMinutes: d.EstimatedMinutes(),
		Stops:            stops,
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	warehouseID, err := columns.ToUUID(dto.WarehouseID)
	if err != nil {
		return nil, err
	}

	stops := make([]delivery.Stop, 0, len(dto.Stops))
	for _, s := range dto.Stops {
		orderID, orderErr := columns.ToUUID(s.OrderID)
		if orderErr != nil {
			return nil, orderErr
		}
		destination, locErr := kernel.NewLocation(s.Latitude, s.Longitude)
		if locErr != nil {
			return nil, locErr
		}
		stops = append(stops, delivery.Stop{
			OrderID:        orderID,
			SequenceNumber: s.SequenceNumber,
			Destination:    destination,
			Priority:       s.Priority,
			HopDistanceKm:  s.HopDistanceKm,
			Status:         delivery.StopStatus(s.Status),
		})
	}

	return delivery.RestoreDelivery(id, warehouseID, dto.ScheduledDate, delivery.Status(dto.Status),
		stops, dto.TotalDistanceKm, dto.EstimatedMinutes)
}
