package repository

import (
	"context"

	"checkout-service/models"

	"gorm.io/gorm"
)

// TransactionRepository stores the audit trail of processor calls.
type TransactionRepository interface {
	Create(ctx context.Context, record *models.TransactionRecord) error
	FindByProcessorOrderID(ctx context.Context, orderID string) ([]models.TransactionRecord, error)
}

// GormTransactionRepository implements TransactionRepository using GORM.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) TransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, record *models.TransactionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *GormTransactionRepository) FindByProcessorOrderID(ctx context.Context, orderID string) ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	if err := r.db.WithContext(ctx).
		Where("processor_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
