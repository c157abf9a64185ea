package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OperationCreate  = "create"
	OperationCapture = "capture"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// TransactionRecord is one processor call, kept for audit.
type TransactionRecord struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Operation         string            `gorm:"type:varchar(16);not null;index" json:"operation"`
	ProcessorOrderID  string            `gorm:"type:varchar(64);index" json:"processor_order_id"`
	ContactPreference ContactPreference `gorm:"type:varchar(32)" json:"contact_preference,omitempty"`
	StatusCode        int               `json:"status_code"`
	Outcome           string            `gorm:"type:varchar(16);not null" json:"outcome"`
	ErrorName         string            `gorm:"type:varchar(128)" json:"error_name,omitempty"`
	IdempotencyKey    string            `gorm:"type:varchar(128)" json:"idempotency_key"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}
