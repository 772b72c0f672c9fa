package task

import (
	"context"
	"time"

	"github.com/travisim/Farmify-sub001/internal/config"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/logic"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// LedgerReconcileJob resolves submissions whose outcome was unknown at
// request time. It polls the ledger by the precomputed transaction hash:
// a validated success is credited to the funding cache exactly as a direct
// success would have been (the hash keeps it idempotent), a validated
// rejection closes the row, and a submission that never validates is
// expired after a bounded number of polls.
type LedgerReconcileJob struct {
	db       *gorm.DB
	gateway  xrpl.Gateway
	funding  *logic.FundingLogic
	interval time.Duration
	maxTries int
}

// NewLedgerReconcileJob creates the reconciliation job.
func NewLedgerReconcileJob(db *gorm.DB, gateway xrpl.Gateway, funding *logic.FundingLogic, cfg *config.Config) *LedgerReconcileJob {
	interval := time.Duration(cfg.Task.ReconcileInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxTries := cfg.Task.MaxReconcileTries
	if maxTries <= 0 {
		maxTries = 20
	}
	return &LedgerReconcileJob{
		db:       db,
		gateway:  gateway,
		funding:  funding,
		interval: interval,
		maxTries: maxTries,
	}
}

func (j *LedgerReconcileJob) GetName() string {
	return "ledger_reconcile"
}

func (j *LedgerReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *LedgerReconcileJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	var pending []model.PendingSubmission
	if err := j.db.Where("status = ?", "open").Find(&pending).Error; err != nil {
		logger.Error("failed to fetch pending submissions: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	resolved := 0
	for _, sub := range pending {
		result, err := j.gateway.Tx(ctx, sub.TxHash)
		if err != nil || !result.Validated {
			j.bumpAttempts(&sub)
			continue
		}

		switch result.Outcome() {
		case xrpl.OutcomeSuccess:
			if err := j.credit(&sub, result); err != nil {
				logger.Error("failed to credit reconciled tx %s: %v", sub.TxHash, err)
				continue
			}
			j.close(&sub, "resolved")
			resolved++
		case xrpl.OutcomeRejected:
			logger.Warn("queued submission %s validated as rejected: %s", sub.TxHash, result.EngineResult)
			j.close(&sub, "expired")
		default:
			j.bumpAttempts(&sub)
		}
	}

	if resolved > 0 {
		logger.Info("ledger reconcile pass resolved %d of %d pending submissions", resolved, len(pending))
	}
}

func (j *LedgerReconcileJob) credit(sub *model.PendingSubmission, result *xrpl.Result) error {
	switch sub.Kind {
	case model.SubmissionKindInvestment:
		var project model.Project
		if err := j.db.First(&project, sub.ProjectID).Error; err != nil {
			return err
		}
		ledgerTime := result.ValidatedAt
		if ledgerTime.IsZero() {
			ledgerTime = time.Now().UTC()
		}
		_, err := j.funding.RecordInvestment(project.TokenID, sub.InvestorAddress,
			sub.Amount, sub.TxHash, ledgerTime)
		return err
	default:
		logger.Warn("unknown pending submission kind %q for tx %s", sub.Kind, sub.TxHash)
		return nil
	}
}

func (j *LedgerReconcileJob) bumpAttempts(sub *model.PendingSubmission) {
	sub.Attempts++
	updates := map[string]interface{}{"attempts": sub.Attempts}
	if sub.Attempts >= j.maxTries {
		updates["status"] = "expired"
		logger.Warn("pending submission %s expired after %d polls", sub.TxHash, sub.Attempts)
	}
	if err := j.db.Model(sub).Updates(updates).Error; err != nil {
		logger.Error("failed to update pending submission %s: %v", sub.TxHash, err)
	}
}

func (j *LedgerReconcileJob) close(sub *model.PendingSubmission, status string) {
	if err := j.db.Model(sub).Update("status", status).Error; err != nil {
		logger.Error("failed to close pending submission %s: %v", sub.TxHash, err)
	}
}
