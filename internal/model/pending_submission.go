package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PendingSubmission is a ledger submission whose outcome is not yet known
// (the gateway answered queued, or the request timed out after the blob was
// sent). The hash is computed client-side before submission so the
// reconciliation job can later look the transaction up and either commit
// the cache write or expire the row. Never treated as a committed fact.
type PendingSubmission struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Kind            SubmissionKind  `json:"kind" gorm:"not null"`
	ProjectID       uint            `json:"project_id" gorm:"not null;index"`
	InvestorAddress string          `json:"investor_address"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(32,6)"`
	TxHash          string          `json:"tx_hash" gorm:"uniqueIndex;not null"`
	Attempts        int             `json:"attempts" gorm:"default:0"`
	Status          string          `json:"status" gorm:"default:'open'"` // open, resolved, expired
}

// SubmissionKind distinguishes what cache write a resolved submission triggers.
type SubmissionKind string

const (
	SubmissionKindInvestment SubmissionKind = "investment"
)

// TableName maps PendingSubmission to its table.
func (PendingSubmission) TableName() string {
	return "pending_submissions"
}
