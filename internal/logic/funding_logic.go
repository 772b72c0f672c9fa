package logic

import (
	"context"
	"errors"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FundingLogic owns the Project and Investment records. Every mutation of a
// project's accumulated funding goes through RecordInvestment, which
// revalidates the funding cap inside the same transaction that applies the
// increment, so two concurrent investments can never both pass a stale
// check.
type FundingLogic struct {
	db      *gorm.DB
	gateway xrpl.Gateway
}

// NewFundingLogic creates the funding logic.
func NewFundingLogic(db *gorm.DB, gateway xrpl.Gateway) *FundingLogic {
	return &FundingLogic{db: db, gateway: gateway}
}

// CreateProject registers a new project in the funding cache.
func (f *FundingLogic) CreateProject(project *model.Project) error {
	if err := f.validateProject(project); err != nil {
		return err
	}

	project.Status = model.ProjectStatusActive
	project.AccumulatedFunding = decimal.Zero
	project.InvestorCount = 0

	if err := f.db.Create(project).Error; err != nil {
		return err
	}
	return nil
}

// GetProject looks a project up by its token id.
func (f *FundingLogic) GetProject(tokenID string) (*model.Project, error) {
	var project model.Project
	if err := f.db.Where("token_id = ?", tokenID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "project %s not found", tokenID)
		}
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects, newest first.
func (f *FundingLogic) ListProjects() ([]model.Project, error) {
	var projects []model.Project
	if err := f.db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListInvestments returns a project's investments, newest first.
func (f *FundingLogic) ListInvestments(tokenID string) ([]model.Investment, error) {
	project, err := f.GetProject(tokenID)
	if err != nil {
		return nil, err
	}

	var investments []model.Investment
	if err := f.db.Where("project_id = ?", project.ID).
		Order("created_at DESC, id DESC").
		Find(&investments).Error; err != nil {
		return nil, err
	}
	return investments, nil
}

// Invest submits a pre-signed investment transaction to the ledger and, on
// a definitive success, records it in the funding cache. A queued or
// unknown outcome writes a PendingSubmission keyed by the client-side
// transaction hash instead; the reconciliation job resolves it later. The
// cache is never credited before the ledger confirms.
func (f *FundingLogic) Invest(ctx context.Context, tokenID, investorAddress string,
	amount decimal.Decimal, signedBlob []byte) (*model.Investment, *model.PendingSubmission, error) {

	project, err := f.GetProject(tokenID)
	if err != nil {
		return nil, nil, err
	}
	if !project.AcceptsInvestment() {
		return nil, nil, apperr.New(apperr.KindInvalidStateTransition,
			"project %s is %s and not accepting investment", tokenID, project.Status)
	}
	if amount.Sign() <= 0 {
		return nil, nil, apperr.New(apperr.KindInvalidInput, "investment amount must be positive")
	}
	// Advisory precheck only; the binding check happens at commit time.
	if amount.GreaterThan(project.RemainingCapacity()) {
		return nil, nil, &apperr.FundingExceededError{
			ProjectID: project.ID,
			Requested: amount,
			Remaining: project.RemainingCapacity(),
		}
	}

	txHash := xrpl.TxHash(signedBlob)

	result, err := f.gateway.Submit(ctx, signedBlob)
	if err != nil {
		// The blob may have reached the ledger before the failure; park
		// the precomputed hash for reconciliation rather than assuming
		// the submission lost.
		pending, perr := f.parkSubmission(project.ID, investorAddress, amount, txHash)
		if perr != nil {
			return nil, nil, perr
		}
		logger.Warn("investment submission outcome unknown for project %s, parked tx %s: %v",
			tokenID, txHash, err)
		return nil, pending, nil
	}

	switch result.Outcome() {
	case xrpl.OutcomeSuccess:
		record, err := f.RecordInvestment(tokenID, investorAddress, amount, result.Hash, result.ValidatedAt)
		if err != nil {
			return nil, nil, err
		}
		return record, nil, nil
	case xrpl.OutcomeRejected:
		return nil, nil, apperr.New(apperr.KindLedgerSubmissionFailed,
			"ledger rejected investment transaction: %s", result.EngineResult)
	default:
		pending, err := f.parkSubmission(project.ID, investorAddress, amount, result.Hash)
		if err != nil {
			return nil, nil, err
		}
		return nil, pending, nil
	}
}

// RecordInvestment applies one confirmed investment to the funding cache:
// investment row, accumulated funding increment and investor count
// increment as a single atomic unit. Replaying an already recorded
// transaction hash is a no-op returning the existing record.
func (f *FundingLogic) RecordInvestment(tokenID, investorAddress string,
	amount decimal.Decimal, txHash string, ledgerTime time.Time) (*model.Investment, error) {

	if err := f.validateInvestment(investorAddress, amount, txHash); err != nil {
		return nil, err
	}

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Idempotent replay: the transaction hash is already committed.
	var existing model.Investment
	err := tx.Where("tx_hash = ?", txHash).First(&existing).Error
	if err == nil {
		tx.Rollback()
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	var project model.Project
	if err := tx.Where("token_id = ?", tokenID).First(&project).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "project %s not found", tokenID)
		}
		return nil, err
	}

	if !project.AcceptsInvestment() {
		tx.Rollback()
		return nil, apperr.New(apperr.KindInvalidStateTransition,
			"project %s is %s and not accepting investment", tokenID, project.Status)
	}

	// Guarded increment: the cap is re-checked in the same statement that
	// applies the write, so a concurrent commit between our read and this
	// update cannot push accumulated funding past the goal.
	res := tx.Model(&model.Project{}).
		Where("id = ? AND status = ? AND accumulated_funding + ? <= funding_goal",
			project.ID, model.ProjectStatusActive, amount).
		Updates(map[string]interface{}{
			"accumulated_funding": gorm.Expr("accumulated_funding + ?", amount),
			"investor_count":      gorm.Expr("investor_count + 1"),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Re-read for the authoritative remaining capacity.
		var current model.Project
		if err := tx.First(&current, project.ID).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		tx.Rollback()
		return nil, &apperr.FundingExceededError{
			ProjectID: current.ID,
			Requested: amount,
			Remaining: current.RemainingCapacity(),
		}
	}

	record := &model.Investment{
		ProjectID:       project.ID,
		InvestorAddress: investorAddress,
		Amount:          amount,
		TxHash:          txHash,
		LedgerTime:      ledgerTime,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Close the project once the goal is reached.
	var updated model.Project
	if err := tx.First(&updated, project.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if updated.AccumulatedFunding.GreaterThanOrEqual(updated.FundingGoal) {
		if err := tx.Model(&updated).Update("status", model.ProjectStatusFunded).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("recorded investment of %s into project %s (tx %s)",
		amount.String(), tokenID, txHash)
	return record, nil
}

// parkSubmission stores a queued submission for later reconciliation.
// Replaying the same hash returns the existing row.
func (f *FundingLogic) parkSubmission(projectID uint, investorAddress string,
	amount decimal.Decimal, txHash string) (*model.PendingSubmission, error) {

	var existing model.PendingSubmission
	err := f.db.Where("tx_hash = ?", txHash).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pending := &model.PendingSubmission{
		Kind:            model.SubmissionKindInvestment,
		ProjectID:       projectID,
		InvestorAddress: investorAddress,
		Amount:          amount,
		TxHash:          txHash,
		Status:          "open",
	}
	if err := f.db.Create(pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

// GetProjectStats aggregates a project's funding progress.
func (f *FundingLogic) GetProjectStats(tokenID string) (map[string]interface{}, error) {
	project, err := f.GetProject(tokenID)
	if err != nil {
		return nil, err
	}

	var investmentCount int64
	if err := f.db.Model(&model.Investment{}).
		Where("project_id = ?", project.ID).
		Count(&investmentCount).Error; err != nil {
		return nil, err
	}

	completion := decimal.Zero
	if project.FundingGoal.Sign() > 0 {
		completion = project.AccumulatedFunding.
			Div(project.FundingGoal).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return map[string]interface{}{
		"token_id":              project.TokenID,
		"status":                project.Status,
		"funding_goal":          project.FundingGoal,
		"accumulated_funding":   project.AccumulatedFunding,
		"remaining_capacity":    project.RemainingCapacity(),
		"investor_count":        project.InvestorCount,
		"investment_count":      investmentCount,
		"completion_percentage": completion,
	}, nil
}

func (f *FundingLogic) validateProject(project *model.Project) error {
	if project.TokenID == "" {
		return apperr.New(apperr.KindInvalidInput, "project token id is required")
	}
	if project.FarmerAddress == "" {
		return apperr.New(apperr.KindInvalidInput, "farmer address is required")
	}
	if project.Title == "" {
		return apperr.New(apperr.KindInvalidInput, "project title is required")
	}
	if project.FundingGoal.Sign() <= 0 {
		return apperr.New(apperr.KindInvalidInput, "funding goal must be positive")
	}
	return nil
}

func (f *FundingLogic) validateInvestment(investorAddress string, amount decimal.Decimal, txHash string) error {
	if investorAddress == "" {
		return apperr.New(apperr.KindInvalidInput, "investor address is required")
	}
	if amount.Sign() <= 0 {
		return apperr.New(apperr.KindInvalidInput, "investment amount must be positive")
	}
	if txHash == "" {
		return apperr.New(apperr.KindInvalidInput, "transaction hash is required")
	}
	return nil
}
