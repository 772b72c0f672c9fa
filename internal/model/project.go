package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project is a farm funding project. Identified by the NFT token id minted
// when the farmer registers the project on the ledger.
type Project struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Identity
	TokenID       string `json:"token_id" gorm:"uniqueIndex;not null" binding:"required"`
	FarmerAddress string `json:"farmer_address" gorm:"not null" binding:"required"`
	FarmerName    string `json:"farmer_name"`

	// Basic info
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`

	// Funding info. AccumulatedFunding never exceeds FundingGoal;
	// both are mutated only by FundingLogic inside a transaction.
	FundingGoal        decimal.Decimal `json:"funding_goal" gorm:"type:decimal(32,6);not null"`
	AccumulatedFunding decimal.Decimal `json:"accumulated_funding" gorm:"type:decimal(32,6);not null;default:0"`
	InvestorCount      int64           `json:"investor_count" gorm:"not null;default:0"`

	Status ProjectStatus `json:"status" gorm:"default:'active'"`

	// Associations
	Investments []Investment `json:"investments,omitempty" gorm:"foreignKey:ProjectID"`
}

// ProjectStatus is the project lifecycle status.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"   // accepting investment
	ProjectStatusFunded   ProjectStatus = "funded"   // goal reached, investment closed
	ProjectStatusSettling ProjectStatus = "settling" // revenue proof submitted
	ProjectStatusSettled  ProjectStatus = "settled"  // profit distribution completed
)

// TableName maps Project to its table.
func (Project) TableName() string {
	return "projects"
}

// RemainingCapacity returns how much investment the project can still accept.
func (p *Project) RemainingCapacity() decimal.Decimal {
	return p.FundingGoal.Sub(p.AccumulatedFunding)
}

// AcceptsInvestment reports whether new investments may be recorded.
func (p *Project) AcceptsInvestment() bool {
	return p.Status == ProjectStatusActive
}
