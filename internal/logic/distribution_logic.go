package logic

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/payout"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DistributionLogic executes distribution plans and owns the
// ProfitDistribution records. Payout legs are independent: a failed leg is
// recorded and the pass continues; re-running a pass skips every recipient
// that already has a completed row, so retries never double-pay.
type DistributionLogic struct {
	db          *gorm.DB
	gateway     xrpl.Gateway
	settlements *SettlementLogic

	wallet          string // platform wallet paying the legs out
	platformAddress string
	platformFeePct  decimal.Decimal
	farmerSharePct  decimal.Decimal
	poolSize        int
}

// NewDistributionLogic creates the distribution logic.
func NewDistributionLogic(db *gorm.DB, gateway xrpl.Gateway, settlements *SettlementLogic,
	wallet, platformAddress string, platformFeePct, farmerSharePct decimal.Decimal, poolSize int) *DistributionLogic {

	if poolSize <= 0 {
		poolSize = 4
	}
	return &DistributionLogic{
		db:              db,
		gateway:         gateway,
		settlements:     settlements,
		wallet:          wallet,
		platformAddress: platformAddress,
		platformFeePct:  platformFeePct,
		farmerSharePct:  farmerSharePct,
		poolSize:        poolSize,
	}
}

// BuildPlan computes the distribution plan for a project's settlement. The
// settlement must be verified, or completed with unfinished legs (retry).
func (d *DistributionLogic) BuildPlan(tokenID string) (*model.SettlementRecord, *payout.Plan, error) {
	record, err := d.settlements.GetSettlement(tokenID)
	if err != nil {
		return nil, nil, err
	}

	switch record.Status {
	case model.SettlementStatusVerified:
		// first pass
	case model.SettlementStatusCompleted:
		pendingLegs, err := d.hasUnfinishedLegs(record.ID)
		if err != nil {
			return nil, nil, err
		}
		if !pendingLegs {
			return nil, nil, &apperr.StateTransitionError{
				ProjectID: record.ProjectID,
				Requested: "distribute profit",
				Current:   string(record.Status),
			}
		}
	default:
		return nil, nil, &apperr.StateTransitionError{
			ProjectID: record.ProjectID,
			Requested: "distribute profit",
			Current:   string(record.Status),
		}
	}

	var investments []model.Investment
	if err := d.db.Where("project_id = ?", record.ProjectID).Find(&investments).Error; err != nil {
		return nil, nil, err
	}

	plan, err := payout.ComputePlan(record, investments, d.platformFeePct, d.farmerSharePct, d.platformAddress)
	if err != nil {
		return nil, nil, err
	}
	return record, plan, nil
}

// Distribute builds and executes the plan for a project in one call.
func (d *DistributionLogic) Distribute(ctx context.Context, tokenID string) ([]model.ProfitDistribution, error) {
	record, plan, err := d.BuildPlan(tokenID)
	if err != nil {
		return nil, err
	}
	return d.ExecutePlan(ctx, record, plan)
}

// ExecutePlan attempts every leg of the plan, records one
// ProfitDistribution row per leg and marks the settlement completed once
// the pass has been attempted, regardless of individual failures. Legs run
// on a worker pool; each leg's outcome is recorded independently.
func (d *DistributionLogic) ExecutePlan(ctx context.Context, record *model.SettlementRecord,
	plan *payout.Plan) ([]model.ProfitDistribution, error) {

	pool, err := ants.NewPool(d.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []model.ProfitDistribution
		failed  []string
	)

	for _, line := range plan.Lines {
		line := line
		wg.Add(1)
		submit := func() {
			defer wg.Done()
			row, err := d.executeLeg(ctx, record.ID, line)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("failed to record payout leg for settlement %d recipient %s: %v",
					record.ID, line.Recipient, err)
				failed = append(failed, line.Recipient)
				return
			}
			results = append(results, *row)
			if row.Status == model.PayoutStatusFailed {
				failed = append(failed, row.RecipientAddress)
			}
		}
		if err := pool.Submit(submit); err != nil {
			// Pool rejected the task; run the leg inline rather than
			// dropping it.
			submit()
		}
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].RecipientAddress < results[j].RecipientAddress
	})

	if _, err := d.settlements.MarkCompleted(record.ID); err != nil {
		return results, err
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return results, &apperr.PartialDistributionError{
			SettlementID:     record.ID,
			FailedRecipients: failed,
		}
	}
	return results, nil
}

// executeLeg pays out one plan line. A recipient that already has a
// completed row is skipped and the existing row returned; a previously
// failed row is retried in place.
func (d *DistributionLogic) executeLeg(ctx context.Context, settlementID uint, line payout.Line) (*model.ProfitDistribution, error) {
	var existing model.ProfitDistribution
	err := d.db.Where("settlement_id = ? AND recipient_address = ? AND role = ?",
		settlementID, line.Recipient, line.Role).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == model.PayoutStatusCompleted {
			return &existing, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = model.ProfitDistribution{
			SettlementID:     settlementID,
			RecipientAddress: line.Recipient,
			Role:             line.Role,
			Amount:           line.Amount,
			Status:           model.PayoutStatusPending,
		}
		if err := d.db.Create(&existing).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	result, err := d.gateway.SubmitFromWallet(ctx, d.wallet, &xrpl.TxSpec{
		Type:        "Payment",
		Destination: line.Recipient,
		Amount:      line.Amount,
	})
	if err != nil {
		return d.markLegFailed(&existing, err.Error())
	}
	if result.Outcome() != xrpl.OutcomeSuccess {
		return d.markLegFailed(&existing, "ledger result: "+result.EngineResult)
	}

	now := time.Now().UTC()
	if err := d.db.Model(&existing).Updates(map[string]interface{}{
		"status":      model.PayoutStatusCompleted,
		"tx_hash":     result.Hash,
		"amount":      line.Amount,
		"fail_reason": "",
		"paid_at":     &now,
	}).Error; err != nil {
		return nil, err
	}
	existing.Status = model.PayoutStatusCompleted
	existing.TxHash = result.Hash
	existing.Amount = line.Amount
	existing.FailReason = ""
	existing.PaidAt = &now
	logger.Info("paid %s to %s (%s) for settlement %d, tx %s",
		line.Amount.String(), line.Recipient, line.Role, settlementID, result.Hash)
	return &existing, nil
}

func (d *DistributionLogic) markLegFailed(row *model.ProfitDistribution, reason string) (*model.ProfitDistribution, error) {
	if err := d.db.Model(row).Updates(map[string]interface{}{
		"status":      model.PayoutStatusFailed,
		"fail_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	row.Status = model.PayoutStatusFailed
	row.FailReason = reason
	return row, nil
}

// ListDistributions returns the payout rows of a project's settlement.
func (d *DistributionLogic) ListDistributions(tokenID string) ([]model.ProfitDistribution, error) {
	record, err := d.settlements.GetSettlement(tokenID)
	if err != nil {
		return nil, err
	}
	var rows []model.ProfitDistribution
	if err := d.db.Where("settlement_id = ?", record.ID).
		Order("role, recipient_address").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// hasUnfinishedLegs reports whether any leg of a completed settlement still
// needs a retry.
func (d *DistributionLogic) hasUnfinishedLegs(settlementID uint) (bool, error) {
	var count int64
	if err := d.db.Model(&model.ProfitDistribution{}).
		Where("settlement_id = ? AND status <> ?", settlementID, model.PayoutStatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
