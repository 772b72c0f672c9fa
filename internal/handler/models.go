package handler

import (
	"time"

	"github.com/travisim/Farmify-sub001/internal/model"

	"github.com/shopspring/decimal"
)

// Request models

// CreateProjectRequest registers a new project.
type CreateProjectRequest struct {
	TokenID       string          `json:"token_id" binding:"required"`
	FarmerAddress string          `json:"farmer_address" binding:"required"`
	FarmerName    string          `json:"farmer_name"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	Category      string          `json:"category"`
	FundingGoal   decimal.Decimal `json:"funding_goal" binding:"required"`
}

// InvestRequest submits a pre-signed investment transaction.
type InvestRequest struct {
	InvestorAddress string          `json:"investor_address" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	SignedBlob      string          `json:"signed_blob" binding:"required"` // hex
}

// RecordInvestmentRequest records an already validated ledger transaction
// in the funding cache.
type RecordInvestmentRequest struct {
	InvestorAddress string          `json:"investor_address" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TxHash          string          `json:"tx_hash" binding:"required"`
	LedgerTime      *time.Time      `json:"ledger_time"`
}

// SubmitRevenueProofRequest reports harvest revenue with its proof document.
type SubmitRevenueProofRequest struct {
	FarmerAddress string          `json:"farmer_address" binding:"required"`
	RevenueAmount decimal.Decimal `json:"revenue_amount" binding:"required"`
	Document      string          `json:"document" binding:"required"` // base64
	Checksum      string          `json:"checksum"`
}

// VerifySettlementRequest records the admin verification decision.
type VerifySettlementRequest struct {
	AdminAddress     string          `json:"admin_address" binding:"required"`
	ConfirmedRevenue decimal.Decimal `json:"confirmed_revenue" binding:"required"`
	FarmerChecksum   string          `json:"farmer_checksum"`
	AdminChecksum    string          `json:"admin_checksum"`
}

// Response models

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	TokenID            string          `json:"token_id"`
	FarmerAddress      string          `json:"farmer_address"`
	FarmerName         string          `json:"farmer_name"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"image_url"`
	Category           string          `json:"category"`
	FundingGoal        decimal.Decimal `json:"funding_goal"`
	AccumulatedFunding decimal.Decimal `json:"accumulated_funding"`
	InvestorCount      int64           `json:"investor_count"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToProjectResponse converts a project model.
func ToProjectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		TokenID:            p.TokenID,
		FarmerAddress:      p.FarmerAddress,
		FarmerName:         p.FarmerName,
		Title:              p.Title,
		Description:        p.Description,
		ImageURL:           p.ImageURL,
		Category:           p.Category,
		FundingGoal:        p.FundingGoal,
		AccumulatedFunding: p.AccumulatedFunding,
		InvestorCount:      p.InvestorCount,
		Status:             string(p.Status),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// ToProjectResponseList converts a slice of project models.
func ToProjectResponseList(projects []model.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, ToProjectResponse(&projects[i]))
	}
	return out
}

// InvestmentResponse is the public view of an investment.
type InvestmentResponse struct {
	InvestorAddress string          `json:"investor_address"`
	Amount          decimal.Decimal `json:"amount"`
	TxHash          string          `json:"tx_hash"`
	LedgerTime      time.Time       `json:"ledger_time"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToInvestmentResponse converts an investment model.
func ToInvestmentResponse(inv *model.Investment) InvestmentResponse {
	return InvestmentResponse{
		InvestorAddress: inv.InvestorAddress,
		Amount:          inv.Amount,
		TxHash:          inv.TxHash,
		LedgerTime:      inv.LedgerTime,
		CreatedAt:       inv.CreatedAt,
	}
}

// ToInvestmentResponseList converts a slice of investment models.
func ToInvestmentResponseList(investments []model.Investment) []InvestmentResponse {
	out := make([]InvestmentResponse, 0, len(investments))
	for i := range investments {
		out = append(out, ToInvestmentResponse(&investments[i]))
	}
	return out
}

// SettlementResponse is the public view of a settlement record.
type SettlementResponse struct {
	Status           string          `json:"status"`
	FarmerAddress    string          `json:"farmer_address"`
	RevenueAmount    decimal.Decimal `json:"revenue_amount"`
	ProofCID         string          `json:"proof_cid"`
	ProofChecksum    string          `json:"proof_checksum"`
	SubmitTxHash     string          `json:"submit_tx_hash"`
	SubmittedAt      *time.Time      `json:"submitted_at"`
	VerifierAddress  string          `json:"verifier_address,omitempty"`
	VerifyTxHash     string          `json:"verify_tx_hash,omitempty"`
	VerifiedAt       *time.Time      `json:"verified_at,omitempty"`
	ChecksumMismatch bool            `json:"checksum_mismatch"`
}

// ToSettlementResponse converts a settlement model.
func ToSettlementResponse(r *model.SettlementRecord) SettlementResponse {
	return SettlementResponse{
		Status:           string(r.Status),
		FarmerAddress:    r.FarmerAddress,
		RevenueAmount:    r.RevenueAmount,
		ProofCID:         r.ProofCID,
		ProofChecksum:    r.ProofChecksum,
		SubmitTxHash:     r.SubmitTxHash,
		SubmittedAt:      r.SubmittedAt,
		VerifierAddress:  r.VerifierAddress,
		VerifyTxHash:     r.VerifyTxHash,
		VerifiedAt:       r.VerifiedAt,
		ChecksumMismatch: r.ChecksumMismatch,
	}
}

// DistributionResponse is the public view of a payout leg.
type DistributionResponse struct {
	RecipientAddress string          `json:"recipient_address"`
	Role             string          `json:"role"`
	Amount           decimal.Decimal `json:"amount"`
	TxHash           string          `json:"tx_hash,omitempty"`
	Status           string          `json:"status"`
	FailReason       string          `json:"fail_reason,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
}

// ToDistributionResponseList converts payout rows.
func ToDistributionResponseList(rows []model.ProfitDistribution) []DistributionResponse {
	out := make([]DistributionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, DistributionResponse{
			RecipientAddress: row.RecipientAddress,
			Role:             string(row.Role),
			Amount:           row.Amount,
			TxHash:           row.TxHash,
			Status:           string(row.Status),
			FailReason:       row.FailReason,
			PaidAt:           row.PaidAt,
		})
	}
	return out
}
