package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment is a single committed investment into a project. The ledger
// transaction hash is the idempotency key: a retried request carrying a hash
// that is already recorded must not be counted again. Rows are immutable
// once created.
type Investment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ProjectID       uint            `json:"project_id" gorm:"not null;index"`
	InvestorAddress string          `json:"investor_address" gorm:"not null;index"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(32,6);not null"`
	TxHash          string          `json:"tx_hash" gorm:"uniqueIndex;not null"`
	LedgerTime      time.Time       `json:"ledger_time"`

	// Associations
	Project Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName maps Investment to its table.
func (Investment) TableName() string {
	return "investments"
}
