package task

import (
	"context"
	"errors"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/config"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/logic"
	"github.com/travisim/Farmify-sub001/internal/model"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// DistributionRetryJob re-runs the distribution pass for settlements that
// completed with failed payout legs. ExecutePlan is idempotent per
// recipient, so a retry only touches the legs that still need paying.
type DistributionRetryJob struct {
	db           *gorm.DB
	distribution *logic.DistributionLogic
	interval     time.Duration
}

// NewDistributionRetryJob creates the retry job.
func NewDistributionRetryJob(db *gorm.DB, distribution *logic.DistributionLogic, cfg *config.Config) *DistributionRetryJob {
	interval := time.Duration(cfg.Task.RetryInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DistributionRetryJob{
		db:           db,
		distribution: distribution,
		interval:     interval,
	}
}

func (j *DistributionRetryJob) GetName() string {
	return "distribution_retry"
}

func (j *DistributionRetryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *DistributionRetryJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	// Completed settlements that still have non-completed payout legs.
	var tokenIDs []string
	err := j.db.Model(&model.SettlementRecord{}).
		Select("projects.token_id").
		Joins("JOIN projects ON projects.id = settlement_records.project_id").
		Joins("JOIN profit_distributions ON profit_distributions.settlement_id = settlement_records.id").
		Where("settlement_records.status = ?", model.SettlementStatusCompleted).
		Where("profit_distributions.status <> ?", model.PayoutStatusCompleted).
		Distinct().
		Pluck("projects.token_id", &tokenIDs).Error
	if err != nil {
		logger.Error("failed to find settlements needing payout retry: %v", err)
		return
	}

	for _, tokenID := range tokenIDs {
		_, err := j.distribution.Distribute(ctx, tokenID)
		var pe *apperr.PartialDistributionError
		switch {
		case err == nil:
			logger.Info("distribution retry for project %s cleared all failed legs", tokenID)
		case errors.As(err, &pe):
			logger.Warn("distribution retry for project %s still has %d failed legs",
				tokenID, len(pe.FailedRecipients))
		default:
			logger.Error("distribution retry for project %s failed: %v", tokenID, err)
		}
	}
}
