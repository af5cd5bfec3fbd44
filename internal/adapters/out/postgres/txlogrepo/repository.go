// Package txlogrepo stores the append-only transaction log.
package txlogrepo

import (
	"context"
	"time"

	"distribution/internal/adapters/out/postgres/columns"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionDTO is one "inventory_transactions" row. Rows are never updated.
type TransactionDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	LotID          uuid.UUID `gorm:"type:uuid;not null;index:idx_tx_lot,priority:1"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	WarehouseID    uuid.UUID `gorm:"type:uuid;not null"`
	LocationID     string    `gorm:"type:varchar(64);not null;default:''"`
	BatchNumber    string    `gorm:"type:varchar(64);not null;default:''"`
	Type           string    `gorm:"type:varchar(16);not null"`
	ReferenceType  string    `gorm:"type:varchar(32);not null;default:''"`
	ReferenceID    string    `gorm:"type:varchar(64);not null;default:''"`
	Quantity       int       `gorm:"not null"`
	ActorID        string    `gorm:"type:varchar(64);not null;default:''"`
	Note           string    `gorm:"type:text;not null;default:''"`
	IdempotencyKey string    `gorm:"type:varchar(128);not null;default:'';index"`
	OccurredAt     time.Time `gorm:"not null;index:idx_tx_lot,priority:2"`
}

func (TransactionDTO) TableName() string {
	return "inventory_transactions"
}

type GormTransactionLogRepository struct {
	db *gorm.DB
}

func NewGormTransactionLogRepository(db *gorm.DB) *GormTransactionLogRepository {
	return &GormTransactionLogRepository{db: db}
}

func (r *GormTransactionLogRepository) Append(ctx context.Context, entry *inventory.Transaction) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	key := entry.Key()
	dto := TransactionDTO{
		ID:             entry.ID().Bytes(),
		LotID:          entry.LotID().Bytes(),
		ProductID:      key.ProductID.Bytes(),
		WarehouseID:    key.WarehouseID.Bytes(),
		LocationID:     key.LocationID,
		BatchNumber:    key.BatchNumber,
		Type:           string(entry.Type()),
		ReferenceType:  entry.Reference().Type,
		ReferenceID:    entry.Reference().ID,
		Quantity:       entry.Quantity(),
		ActorID:        entry.ActorID(),
		Note:           entry.Note(),
		IdempotencyKey: entry.IdempotencyKey(),
		OccurredAt:     entry.OccurredAt(),
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormTransactionLogRepository) ListByLot(ctx context.Context, lotID kernel.UUID) ([]*inventory.Transaction, error) {
	if err := lotID.Validate(); err != nil {
		return nil, err
	}
	return r.find(ctx, "lot_id = ?", lotID.Bytes())
}

func (r *GormTransactionLogRepository) FindByIdempotencyKey(ctx context.Context, key string) ([]*inventory.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	return r.find(ctx, "idempotency_key = ?", key)
}

func (r *GormTransactionLogRepository) find(ctx context.Context, query string, args ...any) ([]*inventory.Transaction, error) {
	var dtos []TransactionDTO
	if err := r.db.WithContext(ctx).Where(query, args...).Order("occurred_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	entries := make([]*inventory.Transaction, 0, len(dtos))
	for _, dto := range dtos {
		entry, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toDomain(dto TransactionDTO) (*inventory.Transaction, error) {
	id, err := columns.ToUUID(dto.ID)
	if err != nil {
		return nil, err
	}
	lotID, err := columns.ToUUID(dto.LotID)
	if err != nil {
		return nil, err
	}
	key, err := columns.ToLotKey(dto.ProductID, dto.WarehouseID, dto.LocationID, dto.BatchNumber)
	if err != nil {
		return nil, err
	}
	return inventory.RestoreTransaction(
		id, lotID, key,
		inventory.TransactionType(dto.Type),
		inventory.Reference{Type: dto.ReferenceType, ID: dto.ReferenceID},
		dto.Quantity, dto.ActorID, dto.Note, dto.IdempotencyKey, dto.OccurredAt,
	)
}
