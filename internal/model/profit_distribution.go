package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfitDistribution is one payout leg of an executed distribution plan.
// A settlement has at most one row per (recipient, role); a row in
// completed status is immutable and must never be paid again.
type ProfitDistribution struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	SettlementID     uint            `json:"settlement_id" gorm:"not null;uniqueIndex:idx_settlement_recipient_role"`
	RecipientAddress string          `json:"recipient_address" gorm:"not null;uniqueIndex:idx_settlement_recipient_role"`
	Role             RecipientRole   `json:"role" gorm:"not null;uniqueIndex:idx_settlement_recipient_role"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(32,6);not null"`
	TxHash           string          `json:"tx_hash"`
	Status           PayoutStatus    `json:"status" gorm:"default:'pending'"`
	FailReason       string          `json:"fail_reason"`
	PaidAt           *time.Time      `json:"paid_at"`

	// Associations
	Settlement SettlementRecord `json:"settlement,omitempty" gorm:"foreignKey:SettlementID"`
}

// RecipientRole identifies which party a payout leg belongs to.
type RecipientRole string

const (
	RoleInvestor RecipientRole = "investor"
	RoleFarmer   RecipientRole = "farmer"
	RolePlatform RecipientRole = "platform"
)

// PayoutStatus is the state of a single payout leg.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// TableName maps ProfitDistribution to its table.
func (ProfitDistribution) TableName() string {
	return "profit_distributions"
}
