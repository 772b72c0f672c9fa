package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementRecord tracks the revenue reporting lifecycle of one project.
// At most one record per project. Status only ever moves forward:
// pending_verification -> verified -> completed. RevenueAmount is frozen
// once the record leaves pending_verification.
type SettlementRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ProjectID     uint             `json:"project_id" gorm:"uniqueIndex;not null"`
	FarmerAddress string           `json:"farmer_address" gorm:"not null"`
	Status        SettlementStatus `json:"status" gorm:"default:'pending_verification'"`

	// Revenue proof as submitted by the farmer
	RevenueAmount decimal.Decimal `json:"revenue_amount" gorm:"type:decimal(32,6);not null"`
	ProofCID      string          `json:"proof_cid" gorm:"column:proof_cid"`
	ProofChecksum string          `json:"proof_checksum"`
	SubmitTxHash  string          `json:"submit_tx_hash" gorm:"uniqueIndex"`
	SubmittedAt   *time.Time      `json:"submitted_at"`

	// Verification decision
	VerifierAddress  string     `json:"verifier_address"`
	VerifyTxHash     string     `json:"verify_tx_hash"`
	VerifiedAt       *time.Time `json:"verified_at"`
	ChecksumMismatch bool       `json:"checksum_mismatch"` // admin recomputed a different checksum

	// Associations
	Project Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// SettlementStatus is the settlement lifecycle status.
type SettlementStatus string

const (
	SettlementStatusPendingVerification SettlementStatus = "pending_verification" // awaiting admin review
	SettlementStatusVerified            SettlementStatus = "verified"             // revenue confirmed, payout pending
	SettlementStatusCompleted           SettlementStatus = "completed"            // distribution pass done, terminal
)

// TableName maps SettlementRecord to its table.
func (SettlementRecord) TableName() string {
	return "settlement_records"
}
